package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,UserLookup,Publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	billingmetrics "civic/internal/billing/metrics"
	"civic/internal/billing/models"
	billingstore "civic/internal/billing/store"
	identitymodels "civic/internal/identity/models"
	"civic/internal/platform/events"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/httputil"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

var tracer = otel.Tracer("civic/billing")

type Store interface {
	Create(ctx context.Context, b *models.Bill) error
	FindByID(ctx context.Context, billID id.BillID) (*models.Bill, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Bill, int, error)
	Update(ctx context.Context, billID id.BillID, mutate func(*models.Bill) error) (*models.Bill, error)
	Settle(ctx context.Context, billID id.BillID, settle billingstore.SettleFunc) (*models.Bill, *models.Payment, error)
	ListPayments(ctx context.Context, citizenID id.UserID) ([]*models.Payment, error)
	Stats(ctx context.Context, now time.Time) (*models.Stats, error)
}

// UserLookup confirms a bill is issued to an existing citizen account.
type UserLookup interface {
	GetUser(ctx context.Context, userID id.UserID) (*identitymodels.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// Service issues bills and settles payments.
type Service struct {
	store     Store
	users     UserLookup
	publisher Publisher
	policy    models.LateFeePolicy
	logger    *slog.Logger
	auditor   audit.Emitter
	metrics   *billingmetrics.Metrics
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

func WithMetrics(m *billingmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithUserLookup(users UserLookup) Option {
	return func(s *Service) {
		s.users = users
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLateFeePolicy overrides the default rate and cap. Zero values keep
// the defaults.
func WithLateFeePolicy(policy models.LateFeePolicy) Option {
	return func(s *Service) {
		if policy.Rate > 0 {
			s.policy.Rate = policy.Rate
		}
		if policy.Cap > 0 {
			s.policy.Cap = policy.Cap
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, policy: models.DefaultLateFeePolicy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy reports the late fee policy in effect.
func (s *Service) Policy() models.LateFeePolicy {
	return s.policy
}

func translate(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, what+" is already paid")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}

func (s *Service) publish(ctx context.Context, topic, key string, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.Event{
		Topic:      topic,
		Key:        key,
		OccurredAt: requestcontext.Now(ctx),
		Payload:    payload,
	})
}

func (s *Service) checkCitizen(ctx context.Context, citizenID id.UserID) error {
	if s.users == nil {
		return nil
	}
	u, err := s.users.GetUser(ctx, citizenID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeValidation, "citizen does not exist")
		}
		return err
	}
	if u.Role != id.RoleCitizen {
		return dErrors.New(dErrors.CodeValidation, "bills can only be issued to citizens")
	}
	return nil
}

// Issue creates an unpaid bill for a citizen.
func (s *Service) Issue(ctx context.Context, req *models.IssueRequest) (*models.Bill, error) {
	ctx, span := tracer.Start(ctx, "billing.Issue")
	defer span.End()

	req.Normalize()
	citizenID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.checkCitizen(ctx, citizenID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	b, err := models.NewBill(id.NewBillID(), citizenID, models.Kind(req.Kind), req.Reference, req.Description,
		req.Amount, req.DueDate, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, translate(err, "bill")
	}

	audit.Log(ctx, s.logger, s.auditor, audit.EventBillIssued,
		"user_id", requestcontext.UserID(ctx).String(), "subject", b.ID.String(),
		"citizen_id", citizenID.String(), "kind", string(b.Kind))
	if s.metrics != nil {
		s.metrics.IncrementIssued(string(b.Kind))
	}
	s.publish(ctx, events.TopicBillIssued, b.ID.String(), events.BillIssued{
		BillID:    b.ID,
		CitizenID: b.CitizenID,
		Kind:      string(b.Kind),
		Amount:    b.Amount,
		DueDate:   b.DueDate,
	})
	return b, nil
}

// List returns bills visible to the caller. Citizens only see their own.
func (s *Service) List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Bill], error) {
	actor := requestcontext.Actor(ctx)
	if !actor.Role.IsStaffSide() {
		filter.CitizenID = actor.UserID
	}
	filter.Now = requestcontext.Now(ctx)
	bills, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "bills")
	}
	if bills == nil {
		bills = []*models.Bill{}
	}
	return &httputil.ListResponse[*models.Bill]{
		Items:  bills,
		Total:  total,
		Limit:  filter.Page.Limit,
		Offset: filter.Page.Offset,
	}, nil
}

// Get returns a bill. Another citizen's bill reads as missing.
func (s *Service) Get(ctx context.Context, billID id.BillID) (*models.Bill, error) {
	b, err := s.store.FindByID(ctx, billID)
	if err != nil {
		return nil, translate(err, "bill")
	}
	actor := requestcontext.Actor(ctx)
	if !actor.Role.IsStaffSide() && b.CitizenID != actor.UserID {
		return nil, dErrors.New(dErrors.CodeNotFound, "bill not found")
	}
	return b, nil
}

// Quote reports what paying the bill now would cost.
func (s *Service) Quote(ctx context.Context, billID id.BillID) (*models.Quote, error) {
	b, err := s.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	q := b.Quote(s.policy, requestcontext.Now(ctx))
	return &q, nil
}

// Pay settles the caller's bill at the current quote.
func (s *Service) Pay(ctx context.Context, billID id.BillID, req *models.PayRequest) (*models.Payment, error) {
	ctx, span := tracer.Start(ctx, "billing.Pay")
	defer span.End()

	method := models.Method(req.Method)
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "method must be card, bank_transfer, cash or wallet")
	}
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)
	_, payment, err := s.store.Settle(ctx, billID, func(b *models.Bill) (*models.Payment, error) {
		if b.CitizenID != actor.UserID {
			return nil, sentinel.ErrNotFound
		}
		q := b.Quote(s.policy, now)
		if err := b.MarkPaid(now); err != nil {
			return nil, err
		}
		return models.NewPayment(id.NewPaymentID(), b, q, method, now)
	})
	if err != nil {
		return nil, translate(err, "bill")
	}

	audit.Log(ctx, s.logger, s.auditor, audit.EventBillPaid,
		"user_id", actor.UserID.String(), "subject", billID.String(),
		"payment_id", payment.ID.String(), "late_fee", payment.LateFee)
	if s.metrics != nil {
		s.metrics.ObservePayment(string(payment.Method), payment.Total(), payment.LateFee)
	}
	s.publish(ctx, events.TopicBillPaid, billID.String(), events.BillPaid{
		BillID:    billID,
		PaymentID: payment.ID,
		CitizenID: payment.CitizenID,
		Total:     payment.Total(),
	})
	return payment, nil
}

// Cancel withdraws an unpaid bill.
func (s *Service) Cancel(ctx context.Context, billID id.BillID, reason string) (*models.Bill, error) {
	now := requestcontext.Now(ctx)
	b, err := s.store.Update(ctx, billID, func(b *models.Bill) error {
		return b.Cancel(now)
	})
	if err != nil {
		return nil, translate(err, "bill")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventBillCancelled,
		"user_id", requestcontext.UserID(ctx).String(), "subject", billID.String(), "reason", reason)
	return b, nil
}

// ListPayments returns the caller's payments, or everyone's for staff-side
// roles.
func (s *Service) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	actor := requestcontext.Actor(ctx)
	var citizenID id.UserID
	if !actor.Role.IsStaffSide() {
		citizenID = actor.UserID
	}
	payments, err := s.store.ListPayments(ctx, citizenID)
	if err != nil {
		return nil, translate(err, "payments")
	}
	return payments, nil
}

func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.Stats(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "billing stats")
	}
	return stats, nil
}
