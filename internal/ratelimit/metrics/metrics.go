package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for Checks.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
	OutcomeExempt  = "exempt"
)

type Metrics struct {
	Checks       *prometheus.CounterVec
	FallbackUsed prometheus.Counter
	CircuitOpen  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_ratelimit_checks_total",
			Help: "Rate limit checks by endpoint class, key type and outcome",
		}, []string{"class", "key_type", "outcome"}),
		FallbackUsed: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_ratelimit_fallback_total",
			Help: "Checks answered by the in-process fallback while the shared store was unavailable",
		}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "civic_ratelimit_circuit_open",
			Help: "1 while the rate limit store circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveCheck(class, keyType, outcome string) {
	m.Checks.WithLabelValues(class, keyType, outcome).Inc()
}

func (m *Metrics) IncrementFallback() {
	m.FallbackUsed.Inc()
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
