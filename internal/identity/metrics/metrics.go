package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registration and login.
type Metrics struct {
	Registrations prometheus.Counter
	Logins        *prometheus.CounterVec
	Logouts       prometheus.Counter
	LoginDuration prometheus.Histogram
}

// New registers identity metrics on reg; nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_users_registered_total",
			Help: "Total number of citizen self-registrations",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_logouts_total",
			Help: "Total number of revoked access tokens",
		}),
		LoginDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "civic_login_duration_seconds",
			Help:    "Duration of Login including password verification",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.Registrations.Inc()
}

// IncrementLogin records a login outcome: success, invalid, inactive or locked.
func (m *Metrics) IncrementLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLogout() {
	m.Logouts.Inc()
}

// ObserveLogin records the duration since start.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
