package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/platform/logger"
	"civic/internal/ratelimit/models"
	"civic/pkg/requestcontext"
	"civic/pkg/testutil"
)

type stubLimiter struct {
	result  *models.Result
	err     error
	ipCalls int
	classes []models.EndpointClass
	both    []string
}

func (s *stubLimiter) CheckIP(_ context.Context, _ string, class models.EndpointClass) (*models.Result, error) {
	s.ipCalls++
	s.classes = append(s.classes, class)
	return s.result, s.err
}

func (s *stubLimiter) CheckBoth(_ context.Context, ip, userID string, _ models.EndpointClass) (*models.Result, error) {
	s.both = append(s.both, ip+"|"+userID)
	return s.result, s.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
}

func TestRateLimitHeadersOnAllowed(t *testing.T) {
	reset := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := &stubLimiter{result: &models.Result{Allowed: true, Limit: 10, Remaining: 7, ResetAt: reset}}
	h := New(limiter, logger.Discard()).RateLimit(models.ClassRead)(okHandler)

	rr := testutil.DoRequest(h, withIP(testutil.NewRequest(t, http.MethodGet, "/notices"), "192.0.2.1"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "10", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "7", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1777636800", rr.Header().Get("X-RateLimit-Reset"))
	assert.Empty(t, rr.Header().Get("X-RateLimit-Status"))
	assert.Equal(t, 1, limiter.ipCalls)
}

func TestExemptResultSkipsHeaders(t *testing.T) {
	limiter := &stubLimiter{result: &models.Result{Allowed: true, Exempt: true}}
	h := New(limiter, logger.Discard()).RateLimit(models.ClassWrite)(okHandler)

	rr := testutil.DoRequest(h, withIP(testutil.NewRequest(t, http.MethodPost, "/complaints"), "10.0.0.5"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	assert.Empty(t, rr.Header().Get("X-RateLimit-Remaining"))
}

type countRejections map[string]int

func (c countRejections) IncrementRateLimited(class string) { c[class]++ }

func TestRateLimitExceeded(t *testing.T) {
	limiter := &stubLimiter{result: &models.Result{Allowed: false, Limit: 10, ResetAt: time.Now().Add(time.Minute), RetryAfter: 42}}
	rejections := countRejections{}
	h := New(limiter, logger.Discard(), WithRejectionRecorder(rejections)).RateLimit(models.ClassAuth)(okHandler)

	rr := testutil.DoRequest(h, withIP(testutil.NewRequest(t, http.MethodPost, "/auth/login"), "192.0.2.1"))

	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	assert.Equal(t, "42", rr.Header().Get("Retry-After"))
	body := testutil.UnmarshalResponse[models.ExceededResponse](t, rr)
	assert.Equal(t, "rate_limit_exceeded", body.Error)
	assert.Equal(t, 42, body.RetryAfter)
	assert.Equal(t, 1, rejections["auth"])
}

func TestRateLimitByMethod(t *testing.T) {
	limiter := &stubLimiter{result: &models.Result{Allowed: true, Limit: 10, Remaining: 9}}
	h := New(limiter, logger.Discard()).RateLimitByMethod()(okHandler)

	testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/wards"))
	testutil.DoRequest(h, testutil.NewRequest(t, http.MethodPost, "/wards"))
	testutil.DoRequest(h, testutil.NewRequest(t, http.MethodDelete, "/reports/schedules/x"))

	assert.Equal(t, []models.EndpointClass{models.ClassRead, models.ClassWrite, models.ClassWrite}, limiter.classes)
}

func TestAuthenticatedRequestsCheckBothLimits(t *testing.T) {
	limiter := &stubLimiter{result: &models.Result{Allowed: true, Limit: 5, Remaining: 4, Degraded: true}}
	h := New(limiter, logger.Discard()).RateLimit(models.ClassWrite)(okHandler)

	req, userID := testutil.AsCitizen(withIP(testutil.NewRequest(t, http.MethodPost, "/complaints"), "192.0.2.9"))
	rr := testutil.DoRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	require.Len(t, limiter.both, 1)
	assert.Equal(t, "192.0.2.9|"+userID.String(), limiter.both[0])
	assert.Zero(t, limiter.ipCalls)
	assert.Equal(t, "degraded", rr.Header().Get("X-RateLimit-Status"))
}

func TestLimiterErrorFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	h := New(limiter, logger.Discard()).RateLimit(models.ClassRead)(okHandler)

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/notices"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestDisabledSkipsLimiter(t *testing.T) {
	limiter := &stubLimiter{}
	h := New(limiter, logger.Discard(), WithDisabled(true)).RateLimit(models.ClassAuth)(okHandler)

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodPost, "/auth/login"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Zero(t, limiter.ipCalls)
}
