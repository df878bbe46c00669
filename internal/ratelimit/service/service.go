package service

import (
	"context"
	"log/slog"
	"time"

	rlmetrics "civic/internal/ratelimit/metrics"
	"civic/internal/ratelimit/models"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/circuit"
	"civic/pkg/platform/privacy"
	"civic/pkg/requestcontext"
)

// BucketStore counts requests per key over a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// Service checks callers against the per-class budgets. When a fallback
// store is configured, repeated primary failures trip a breaker and checks
// are answered locally until the primary recovers.
type Service struct {
	buckets   BucketStore
	fallback  BucketStore
	breaker   *circuit.Breaker
	limits    models.Limits
	allowlist *models.Allowlist
	logger   *slog.Logger
	auditor  audit.Emitter
	metrics  *rlmetrics.Metrics
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

func WithMetrics(m *rlmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLimits(limits models.Limits) Option {
	return func(s *Service) {
		s.limits = limits
	}
}

// WithAllowlist exempts matching client addresses from every budget.
func WithAllowlist(list *models.Allowlist) Option {
	return func(s *Service) {
		s.allowlist = list
	}
}

// WithFallback answers checks from fallback while the breaker is open.
func WithFallback(fallback BucketStore, breaker *circuit.Breaker) Option {
	return func(s *Service) {
		s.fallback = fallback
		s.breaker = breaker
	}
}

func New(buckets BucketStore, opts ...Option) *Service {
	s := &Service{
		buckets: buckets,
		limits:  models.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback != nil && s.breaker == nil {
		s.breaker = circuit.New("ratelimit")
	}
	return s
}

// CheckIP applies the global cap and then the anonymous budget for class
// to ip.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.Result, error) {
	if s.allowlist.Contains(ip) {
		return s.exempt(ctx, class), nil
	}
	limit, ok := s.limits.IP[class]
	if !ok {
		return s.unconfigured(ctx, class, models.KeyPrefixIP), nil
	}
	if res, err := s.checkGlobal(ctx, class); err != nil || !res.Allowed {
		return res, err
	}
	return s.check(ctx, models.KeyPrefixIP, models.NewKey(models.KeyPrefixIP, ip, class), privacy.AnonymizeIP(ip), class, limit)
}

// CheckBoth applies the IP and user budgets; the request must pass both.
// The reported result is the tighter of the two.
func (s *Service) CheckBoth(ctx context.Context, ip, userID string, class models.EndpointClass) (*models.Result, error) {
	if s.allowlist.Contains(ip) {
		return s.exempt(ctx, class), nil
	}
	ipLimit, ok := s.limits.IP[class]
	if !ok {
		return s.unconfigured(ctx, class, models.KeyPrefixIP), nil
	}
	userLimit, ok := s.limits.User[class]
	if !ok {
		return s.unconfigured(ctx, class, models.KeyPrefixUser), nil
	}

	if res, err := s.checkGlobal(ctx, class); err != nil || !res.Allowed {
		return res, err
	}
	ipRes, err := s.check(ctx, models.KeyPrefixIP, models.NewKey(models.KeyPrefixIP, ip, class), privacy.AnonymizeIP(ip), class, ipLimit)
	if err != nil {
		return nil, err
	}
	if !ipRes.Allowed {
		return ipRes, nil
	}
	userRes, err := s.check(ctx, models.KeyPrefixUser, models.NewKey(models.KeyPrefixUser, userID, class), userID, class, userLimit)
	if err != nil {
		return nil, err
	}
	if !userRes.Allowed || userRes.Remaining < ipRes.Remaining {
		return userRes, nil
	}
	return ipRes, nil
}

// checkGlobal charges the shared bucket. With no global cap configured it
// reports an allowed result without touching the store.
func (s *Service) checkGlobal(ctx context.Context, class models.EndpointClass) (*models.Result, error) {
	limit := s.limits.Global
	if limit.RequestsPerWindow <= 0 {
		return &models.Result{Allowed: true}, nil
	}
	return s.check(ctx, models.KeyPrefixGlobal, models.GlobalKey, "all", class, limit)
}

func (s *Service) check(ctx context.Context, prefix models.KeyPrefix, key, logIdentifier string, class models.EndpointClass, limit models.Limit) (*models.Result, error) {
	res, err := s.allow(ctx, key, limit)
	if err != nil {
		s.observe(class, prefix, rlmetrics.OutcomeError)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}
	if !res.Allowed {
		s.observe(class, prefix, rlmetrics.OutcomeDenied)
		audit.Log(ctx, s.logger, s.auditor, audit.EventRateLimitExceeded,
			"subject", logIdentifier,
			"endpoint_class", string(class),
			"limit_type", string(prefix),
			"limit", limit.RequestsPerWindow,
			"window_seconds", int(limit.Window.Seconds()),
		)
		return res, nil
	}
	s.observe(class, prefix, rlmetrics.OutcomeAllowed)
	return res, nil
}

func (s *Service) allow(ctx context.Context, key string, limit models.Limit) (*models.Result, error) {
	if s.fallback == nil {
		return s.buckets.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	}

	res, err := s.buckets.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.circuitChanged(ctx, false)
		}
		if !s.breaker.IsOpen() {
			return res, nil
		}
	} else {
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.circuitChanged(ctx, true)
		}
		if !useFallback {
			return nil, err
		}
	}

	// Breaker open: the primary was still tried above; answer locally.
	if s.metrics != nil {
		s.metrics.IncrementFallback()
	}
	res, err = s.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}

func (s *Service) circuitChanged(ctx context.Context, open bool) {
	if s.metrics != nil {
		s.metrics.SetCircuitOpen(open)
	}
	if s.logger == nil {
		return
	}
	if open {
		s.logger.WarnContext(ctx, "rate limit store unavailable, using in-process fallback", "breaker", s.breaker.Name())
		return
	}
	s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
}

// unconfigured denies: a class without a budget is a wiring mistake, not a
// licence for unlimited traffic.
func (s *Service) unconfigured(ctx context.Context, class models.EndpointClass, prefix models.KeyPrefix) *models.Result {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "rate limit not configured",
			"endpoint_class", string(class),
			"limit_type", string(prefix),
		)
	}
	return &models.Result{
		Allowed:    false,
		ResetAt:    requestcontext.Now(ctx),
		RetryAfter: 60,
	}
}

func (s *Service) exempt(ctx context.Context, class models.EndpointClass) *models.Result {
	s.observe(class, models.KeyPrefixIP, rlmetrics.OutcomeExempt)
	return &models.Result{Allowed: true, Exempt: true, ResetAt: requestcontext.Now(ctx)}
}

func (s *Service) observe(class models.EndpointClass, prefix models.KeyPrefix, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCheck(string(class), string(prefix), outcome)
	}
}
