// Package authlockout throttles password guessing per email and client
// address. Identity consults it around every login attempt.
package authlockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"civic/internal/ratelimit/models"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/privacy"
	"civic/pkg/requestcontext"
)

type Store interface {
	Get(ctx context.Context, identifier string) (*models.AuthLockout, error)
	RecordFailure(ctx context.Context, identifier string, now, windowStart, dayStart time.Time) (*models.AuthLockout, error)
	Update(ctx context.Context, record *models.AuthLockout) error
	Clear(ctx context.Context, identifier string) error
}

type Service struct {
	store   Store
	config  models.LockoutConfig
	logger  *slog.Logger
	auditor audit.Emitter
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

func WithConfig(cfg models.LockoutConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth lockout store is required")
	}
	s := &Service{
		store:  store,
		config: models.DefaultLockoutConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.AttemptsPerWindow < 1 || s.config.Window <= 0 {
		return nil, errors.New("auth lockout needs a positive attempt budget and window")
	}
	return s, nil
}

// Check reports whether a login for email from ip may proceed. A hard lock
// and an exhausted window budget both refuse; RetryAfter says when the
// earlier of the two lifts.
func (s *Service) Check(ctx context.Context, email, ip string) (*models.LockoutResult, error) {
	key, err := models.NewLockoutKey(email, ip)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if record == nil {
		record = &models.AuthLockout{Identifier: key}
	}

	now := requestcontext.Now(ctx)
	if record.IsLockedAt(now) {
		return &models.LockoutResult{
			RetryAfter:   record.LockedUntil.Sub(now),
			FailureCount: record.FailureCount,
		}, nil
	}

	failures := record.WindowFailures(s.config, now)
	if failures >= s.config.AttemptsPerWindow {
		return &models.LockoutResult{
			RetryAfter:   max(record.LastFailureAt.Add(s.config.Window).Sub(now), 0),
			FailureCount: failures,
		}, nil
	}
	return &models.LockoutResult{
		Allowed:      true,
		Remaining:    s.config.AttemptsPerWindow - failures,
		FailureCount: failures,
	}, nil
}

// RecordFailure counts a failed login and applies the hard lock once the
// daily threshold is reached.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) (*models.AuthLockout, error) {
	key, err := models.NewLockoutKey(email, ip)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	record, err := s.store.RecordFailure(ctx, key, now, now.Add(-s.config.Window), now.Add(-models.DailyWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}

	if record.ShouldHardLock(s.config, now) {
		record.ApplyHardLock(s.config, now)
		if err := s.store.Update(ctx, record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply login lock")
		}
		audit.Log(ctx, s.logger, s.auditor, audit.EventAuthLockoutTriggered,
			"subject", key,
			"ip", privacy.AnonymizeIP(ip),
			"daily_failures", record.DailyFailures,
			"locked_until", record.LockedUntil.Format(time.RFC3339),
		)
	}
	return record, nil
}

// Clear forgets the failures for email and ip after a successful login.
func (s *Service) Clear(ctx context.Context, email, ip string) error {
	key, err := models.NewLockoutKey(email, ip)
	if err != nil {
		return err
	}
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if record == nil {
		return nil
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login lockout")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventAuthLockoutCleared,
		"subject", key,
		"ip", privacy.AnonymizeIP(ip),
	)
	return nil
}
