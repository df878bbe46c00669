// Package httpapi assembles the portal's HTTP surface: the shared middleware
// chain, public and authenticated route groups, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	ratelimitmw "civic/internal/ratelimit/middleware"
	"civic/internal/ratelimit/models"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/platform/middleware/metadata"
	request "civic/pkg/platform/middleware/request"
	"civic/pkg/platform/middleware/requesttime"
)

// Routes is a module handler mounting endpoints that need an actor.
type Routes interface {
	Register(r chi.Router)
}

// PublicRoutes is a module handler that also serves anonymous callers.
type PublicRoutes interface {
	Routes
	RegisterPublic(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the cross-cutting pieces the router needs.
type Deps struct {
	Logger         *slog.Logger
	Latency        request.LatencyObserver
	Metrics        http.Handler
	Validator      authmw.JWTValidator
	Revocations    authmw.TokenRevocationChecker
	RateLimit      *ratelimitmw.Middleware
	RequestTimeout time.Duration
	Health         map[string]HealthCheck
}

// Handlers holds one handler per module.
type Handlers struct {
	Identity      PublicRoutes
	Directory     PublicRoutes
	Notices       PublicRoutes
	Complaints    Routes
	Workforce     Routes
	Billing       Routes
	Budget        Routes
	Notifications Routes
	Reports       Routes
	Audit         Routes
}

// NewRouter wires every module behind the shared middleware chain and wraps
// the result in otelhttp server instrumentation.
func NewRouter(deps Deps, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(request.Timeout(deps.RequestTimeout))
	}
	r.Use(request.ContentTypeJSON)
	r.Use(request.Latency(deps.Latency, routePattern))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/health", healthHandler(deps.Health))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	limit := func(class models.EndpointClass) func(http.Handler) http.Handler {
		if deps.RateLimit == nil {
			return passThrough
		}
		return deps.RateLimit.RateLimit(class)
	}
	byMethod := passThrough
	if deps.RateLimit != nil {
		byMethod = deps.RateLimit.RateLimitByMethod()
	}

	r.Group(func(r chi.Router) {
		r.Use(limit(models.ClassAuth))
		h.Identity.RegisterPublic(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(byMethod)
		h.Directory.RegisterPublic(r)
		h.Notices.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Revocations, deps.Logger))
		r.Use(byMethod)
		for _, m := range []Routes{
			h.Identity, h.Directory, h.Notices, h.Complaints, h.Workforce,
			h.Billing, h.Budget, h.Notifications, h.Reports, h.Audit,
		} {
			if m != nil {
				m.Register(r)
			}
		}
	})

	return otelhttp.NewHandler(r, "civic")
}

func passThrough(next http.Handler) http.Handler { return next }

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			res.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := check(ctx)
			cancel()
			if err != nil {
				res.Checks[name] = err.Error()
				res.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			res.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, res)
	}
}
