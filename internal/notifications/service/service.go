package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Counter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	notifymetrics "civic/internal/notifications/metrics"
	"civic/internal/notifications/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/httputil"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

var tracer = otel.Tracer("civic/notifications")

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID id.UserID, filter models.Filter) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID, now time.Time) (*models.Notification, bool, error)
	MarkAllRead(ctx context.Context, userID id.UserID, now time.Time) (int, error)
	CountUnread(ctx context.Context, userID id.UserID) (int, error)
	GetPreferences(ctx context.Context, userID id.UserID) (*models.Preferences, error)
	SavePreferences(ctx context.Context, p *models.Preferences) error
}

// Counter caches unread counts. A miss is reloaded from the Store.
type Counter interface {
	Get(ctx context.Context, userID id.UserID) (int, bool, error)
	Set(ctx context.Context, userID id.UserID, n int) error
	Adjust(ctx context.Context, userID id.UserID, delta int) error
}

// Service stores notifications, honouring each user's preferences, and keeps
// the unread badge count.
type Service struct {
	store   Store
	counter Counter
	logger  *slog.Logger
	auditor audit.Emitter
	metrics *notifymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *notifymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCounter replaces the default in-process unread counter.
func WithCounter(c Counter) Option {
	return func(s *Service) {
		s.counter = c
	}
}

func New(store Store, counter Counter, opts ...Option) *Service {
	s := &Service{store: store, counter: counter}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func translate(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}

func (s *Service) preferences(ctx context.Context, userID id.UserID) (*models.Preferences, error) {
	p, err := s.store.GetPreferences(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, translate(err, "preferences")
	}
	return p, nil
}

func (s *Service) observe(kind models.Kind, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveNotify(string(kind), outcome)
	}
}

// adjust keeps the cached badge in step. A failed update only costs
// accuracy until the entry expires, so it is logged rather than returned.
func (s *Service) adjust(ctx context.Context, userID id.UserID, delta int) {
	if s.counter == nil {
		return
	}
	if err := s.counter.Adjust(ctx, userID, delta); err != nil {
		s.logger.WarnContext(ctx, "unread counter update failed", "user_id", userID.String(), "error", err)
	}
}

// Notify stores a notification for userID. A nil notification with a nil
// error means the user opted out of kind. During quiet hours the
// notification is stored silent.
func (s *Service) Notify(ctx context.Context, userID id.UserID, kind models.Kind, title, body, link string) (*models.Notification, error) {
	ctx, span := tracer.Start(ctx, "notifications.Notify")
	defer span.End()

	now := requestcontext.Now(ctx)
	n, err := models.NewNotification(id.NewNotificationID(), userID, kind, title, body, link, now)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	prefs, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !prefs.Allows(kind) {
		s.observe(kind, notifymetrics.OutcomeDropped)
		return nil, nil
	}
	n.Silent = prefs.Quiet(now)
	if err := s.store.Create(ctx, n); err != nil {
		return nil, translate(err, "notification")
	}
	s.adjust(ctx, userID, 1)
	if n.Silent {
		s.observe(kind, notifymetrics.OutcomeSilenced)
	} else {
		s.observe(kind, notifymetrics.OutcomeDelivered)
	}
	return n, nil
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Notification], error) {
	items, total, err := s.store.List(ctx, requestcontext.UserID(ctx), filter)
	if err != nil {
		return nil, translate(err, "notifications")
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return &httputil.ListResponse[*models.Notification]{
		Items:  items,
		Total:  total,
		Limit:  filter.Page.Limit,
		Offset: filter.Page.Offset,
	}, nil
}

// MarkRead marks one of the caller's notifications read.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	userID := requestcontext.UserID(ctx)
	n, changed, err := s.store.MarkRead(ctx, userID, notificationID, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "notification")
	}
	if changed {
		s.adjust(ctx, userID, -1)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the caller and returns how
// many changed.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	userID := requestcontext.UserID(ctx)
	marked, err := s.store.MarkAllRead(ctx, userID, requestcontext.Now(ctx))
	if err != nil {
		return 0, translate(err, "notifications")
	}
	if s.counter != nil {
		if err := s.counter.Set(ctx, userID, 0); err != nil {
			s.logger.WarnContext(ctx, "unread counter reset failed", "user_id", userID.String(), "error", err)
		}
	}
	return marked, nil
}

// UnreadCount serves the badge from the counter, recounting on a miss.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	userID := requestcontext.UserID(ctx)
	if s.counter != nil {
		n, ok, err := s.counter.Get(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "unread counter read failed", "user_id", userID.String(), "error", err)
		} else if ok {
			return n, nil
		}
	}
	if s.metrics != nil {
		s.metrics.IncrementCounterMiss()
	}
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, translate(err, "notifications")
	}
	if s.counter != nil {
		if err := s.counter.Set(ctx, userID, n); err != nil {
			s.logger.WarnContext(ctx, "unread counter fill failed", "user_id", userID.String(), "error", err)
		}
	}
	return n, nil
}

func (s *Service) GetPreferences(ctx context.Context) (*models.Preferences, error) {
	return s.preferences(ctx, requestcontext.UserID(ctx))
}

// UpdatePreferences merges patch into the caller's saved preferences.
func (s *Service) UpdatePreferences(ctx context.Context, patch *models.PreferencesPatch) (*models.Preferences, error) {
	userID := requestcontext.UserID(ctx)
	prefs, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := prefs.Apply(patch, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		return nil, translate(err, "preferences")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventPreferencesUpdated,
		"user_id", userID.String(), "subject", userID.String())
	return prefs, nil
}
