package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"civic/internal/ratelimit/models"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type RateLimiter interface {
	CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.Result, error)
	CheckBoth(ctx context.Context, ip, userID string, class models.EndpointClass) (*models.Result, error)
}

// RejectionRecorder counts 429 responses; the platform metrics satisfy it.
type RejectionRecorder interface {
	IncrementRateLimited(class string)
}

type Middleware struct {
	limiter    RateLimiter
	logger     *slog.Logger
	rejections RejectionRecorder
	disabled   bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through (local demos, load tests).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithRejectionRecorder(r RejectionRecorder) Option {
	return func(m *Middleware) {
		m.rejections = r
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits by client IP, and additionally by user once the request
// carries an authenticated actor. Limiter errors fail open.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			actor := requestcontext.Actor(ctx)

			var (
				result *models.Result
				err    error
			)
			if actor.IsAuthenticated() {
				result, err = m.limiter.CheckBoth(ctx, ip, actor.UserID.String(), class)
			} else {
				result, err = m.limiter.CheckIP(ctx, ip, class)
			}
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"endpoint_class", string(class),
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			if result.Exempt {
				next.ServeHTTP(w, r)
				return
			}
			addRateLimitHeaders(w, result)
			if !result.Allowed {
				if m.rejections != nil {
					m.rejections.IncrementRateLimited(string(class))
				}
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByMethod charges safe methods to the read budget and everything
// else to the write budget.
func (m *Middleware) RateLimitByMethod() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		read := m.RateLimit(models.ClassRead)(next)
		write := m.RateLimit(models.ClassWrite)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				read.ServeHTTP(w, r)
			default:
				write.ServeHTTP(w, r)
			}
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
