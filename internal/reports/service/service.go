package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,ComplaintStats,BillingStats,BudgetStats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	billingmodels "civic/internal/billing/models"
	budgetmodels "civic/internal/budget/models"
	complaintmodels "civic/internal/complaints/models"
	reportmetrics "civic/internal/reports/metrics"
	"civic/internal/reports/models"
	reportstore "civic/internal/reports/store"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

var tracer = otel.Tracer("civic/reports")

const defaultRunHistory = 50

type Store interface {
	CreateSchedule(ctx context.Context, sch *models.Schedule) error
	FindSchedule(ctx context.Context, scheduleID id.ScheduleID) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
	DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error
	DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error)
	RecordRun(ctx context.Context, run *models.Run, claimed time.Time) (*models.Schedule, error)
	ListRuns(ctx context.Context, scheduleID id.ScheduleID, limit int) ([]*models.Run, error)
}

type ComplaintStats interface {
	Stats(ctx context.Context, now time.Time) (*complaintmodels.Stats, error)
}

type BillingStats interface {
	Stats(ctx context.Context) (*billingmodels.Stats, error)
}

type BudgetStats interface {
	Stats(ctx context.Context) (*budgetmodels.Stats, error)
}

// Service assembles the portal summary and runs report schedules.
type Service struct {
	store      Store
	complaints ComplaintStats
	billing    BillingStats
	budget     BudgetStats
	logger     *slog.Logger
	auditor    audit.Emitter
	metrics    *reportmetrics.Metrics
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

func WithMetrics(m *reportmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, complaints ComplaintStats, billing BillingStats, budget BudgetStats, opts ...Option) *Service {
	s := &Service{store: store, complaints: complaints, billing: billing, budget: budget}
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

func (s *Service) countRun(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementRun(outcome)
	}
}

// Summary gathers every module's figures concurrently. The first failure
// cancels the rest.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	ctx, span := tracer.Start(ctx, "reports.Summary")
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)
	summary := &models.Summary{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.complaints.Stats(gctx, now)
		if err != nil {
			return fmt.Errorf("complaints: %w", err)
		}
		summary.Complaints = models.ComplaintSection{
			Total:    st.Total,
			ByStatus: st.ByStatus,
			ByWard:   st.ByWard,
			Overdue:  st.Overdue,
		}
		return nil
	})
	g.Go(func() error {
		st, err := s.billing.Stats(gctx)
		if err != nil {
			return fmt.Errorf("billing: %w", err)
		}
		summary.Billing = models.BillingSection{
			Issued:      st.Issued,
			Collected:   st.Collected,
			Outstanding: st.Outstanding,
			LateFees:    st.LateFees,
		}
		return nil
	})
	g.Go(func() error {
		st, err := s.budget.Stats(gctx)
		if err != nil {
			return fmt.Errorf("budget: %w", err)
		}
		summary.Budget = models.BudgetSection{
			Cycles:    st.Cycles,
			Proposals: st.Proposals,
			Votes:     st.Votes,
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build summary")
	}
	if s.metrics != nil {
		s.metrics.ObserveSummary(time.Since(start))
	}
	return summary, nil
}

// CreateSchedule registers a recurring report owned by the caller.
func (s *Service) CreateSchedule(ctx context.Context, req *models.ScheduleRequest) (*models.Schedule, error) {
	freq, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, err
	}
	actor := requestcontext.UserID(ctx)
	sch, err := models.NewSchedule(id.NewScheduleID(), req.Name, freq, req.Recipients, req.StartAt, actor, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.store.CreateSchedule(ctx, sch); err != nil {
		return nil, translate(err, "schedule")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventReportScheduled,
		"user_id", actor.String(), "subject", sch.ID.String(), "frequency", string(sch.Frequency))
	return sch, nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	schedules, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, translate(err, "schedules")
	}
	return schedules, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	if err := s.store.DeleteSchedule(ctx, scheduleID); err != nil {
		return translate(err, "schedule")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventReportUnscheduled,
		"user_id", requestcontext.UserID(ctx).String(), "subject", scheduleID.String())
	return nil
}

func (s *Service) ListRuns(ctx context.Context, scheduleID id.ScheduleID) ([]*models.Run, error) {
	runs, err := s.store.ListRuns(ctx, scheduleID, defaultRunHistory)
	if err != nil {
		return nil, translate(err, "schedule")
	}
	return runs, nil
}

// RunDue generates one run for every schedule due at the context's time and
// returns how many it recorded. A schedule another instance already ran is
// skipped; other failures are joined so one bad schedule does not block the
// rest.
func (s *Service) RunDue(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "reports.RunDue")
	defer span.End()

	now := requestcontext.Now(ctx)
	due, err := s.store.DueSchedules(ctx, now)
	if err != nil {
		return 0, translate(err, "schedules")
	}
	if len(due) == 0 {
		return 0, nil
	}
	summary, err := s.Summary(ctx)
	if err != nil {
		s.countRun("failed")
		return 0, err
	}

	var (
		generated int
		errs      []error
	)
	for _, sch := range due {
		run := &models.Run{
			ID:          id.NewRunID(),
			ScheduleID:  sch.ID,
			GeneratedAt: now,
			Summary:     *summary,
		}
		advanced, err := s.store.RecordRun(ctx, run, sch.NextRunAt)
		switch {
		case errors.Is(err, reportstore.ErrAlreadyRun), errors.Is(err, reportstore.ErrNotFound):
			s.countRun("skipped")
			continue
		case err != nil:
			s.countRun("failed")
			errs = append(errs, fmt.Errorf("schedule %s: %w", sch.ID, err))
			continue
		}
		generated++
		s.countRun("generated")
		s.logger.InfoContext(ctx, "report generated",
			"schedule_id", sch.ID.String(),
			"run_id", run.ID.String(),
			"recipients", len(sch.Recipients),
			"next_run_at", advanced.NextRunAt,
		)
	}
	if len(errs) > 0 {
		return generated, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "some reports failed")
	}
	return generated, nil
}
