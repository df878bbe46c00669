package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"civic/internal/notices/models"
	"civic/internal/platform/events"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/httputil"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, n *models.Notice) error
	FindByID(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error)
	Update(ctx context.Context, noticeID id.NoticeID, mutate func(*models.Notice) error) (*models.Notice, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Notice, int, error)
	ListPublished(ctx context.Context, wardID id.WardID, now time.Time) ([]*models.Notice, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// WardChecker confirms targeted wards exist.
type WardChecker interface {
	WardExists(ctx context.Context, wardID id.WardID) (bool, error)
}

// Service drafts, publishes and archives public notices.
type Service struct {
	store     Store
	publisher Publisher
	wards     WardChecker
	logger    *slog.Logger
	auditor   audit.Emitter
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

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithWardChecker(wards WardChecker) Option {
	return func(s *Service) {
		s.wards = wards
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "notice not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access notice")
}

func (s *Service) content(ctx context.Context, req *models.NoticeRequest) (models.Content, error) {
	content, err := req.ToContent()
	if err != nil {
		return models.Content{}, err
	}
	if s.wards == nil {
		return content, nil
	}
	for _, wardID := range content.WardIDs {
		ok, err := s.wards.WardExists(ctx, wardID)
		if err != nil {
			return models.Content{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ward")
		}
		if !ok {
			return models.Content{}, dErrors.New(dErrors.CodeValidation, "ward "+wardID.String()+" does not exist")
		}
	}
	return content, nil
}

// Create stores a draft authored by the caller.
func (s *Service) Create(ctx context.Context, req *models.NoticeRequest) (*models.Notice, error) {
	content, err := s.content(ctx, req)
	if err != nil {
		return nil, err
	}
	authorID := requestcontext.UserID(ctx)
	n, err := models.NewNotice(id.NewNoticeID(), authorID, content, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, translate(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventNoticeCreated,
		"user_id", authorID.String(), "subject", n.ID.String())
	return n, nil
}

// Update edits a draft. Published notices are immutable.
func (s *Service) Update(ctx context.Context, noticeID id.NoticeID, req *models.NoticeRequest) (*models.Notice, error) {
	content, err := s.content(ctx, req)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var editErr error
	n, err := s.store.Update(ctx, noticeID, func(n *models.Notice) error {
		if n.Status != models.StatusDraft {
			return dErrors.New(dErrors.CodeInvariantViolation, "only drafts can be edited")
		}
		editErr = n.Edit(content, now)
		return editErr
	})
	if err != nil {
		if editErr != nil {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(editErr))
		}
		return nil, translate(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventNoticeUpdated,
		"user_id", requestcontext.UserID(ctx).String(), "subject", n.ID.String())
	return n, nil
}

// Publish makes a draft live and announces it to the targeted wards.
func (s *Service) Publish(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error) {
	now := requestcontext.Now(ctx)
	n, err := s.store.Update(ctx, noticeID, func(n *models.Notice) error {
		return n.Publish(now)
	})
	if err != nil {
		return nil, translate(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventNoticePublished,
		"user_id", requestcontext.UserID(ctx).String(), "subject", n.ID.String(), "category", string(n.Category))
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicNoticePublished,
			Key:        n.ID.String(),
			OccurredAt: now,
			Payload: events.NoticePublished{
				NoticeID: n.ID,
				Title:    n.Title,
				Category: string(n.Category),
				WardIDs:  n.WardIDs,
			},
		})
	}
	return n, nil
}

func (s *Service) Archive(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error) {
	now := requestcontext.Now(ctx)
	n, err := s.store.Update(ctx, noticeID, func(n *models.Notice) error {
		return n.Archive(now)
	})
	if err != nil {
		return nil, translate(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventNoticeArchived,
		"user_id", requestcontext.UserID(ctx).String(), "subject", n.ID.String())
	return n, nil
}

// Get returns a notice. Citizens only see live published notices; drafts,
// archived and expired notices read as missing.
func (s *Service) Get(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error) {
	n, err := s.store.FindByID(ctx, noticeID)
	if err != nil {
		return nil, translate(err)
	}
	if !requestcontext.Role(ctx).IsStaffSide() && !n.VisibleIn(id.WardID{}, requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "notice not found")
	}
	return n, nil
}

// ListPublished returns live notices for a ward, city-wide ones included.
// A nil ward lists every live notice.
func (s *Service) ListPublished(ctx context.Context, wardID id.WardID) ([]*models.Notice, error) {
	notices, err := s.store.ListPublished(ctx, wardID, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err)
	}
	return notices, nil
}

// List is the staff view over every notice.
func (s *Service) List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Notice], error) {
	notices, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, translate(err)
	}
	if notices == nil {
		notices = []*models.Notice{}
	}
	return &httputil.ListResponse[*models.Notice]{
		Items:  notices,
		Total:  total,
		Limit:  filter.Page.Limit,
		Offset: filter.Page.Offset,
	}, nil
}
