package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for Notifications.
const (
	OutcomeDelivered = "delivered"
	OutcomeSilenced  = "silenced"
	OutcomeDropped   = "dropped"
)

type Metrics struct {
	Notifications *prometheus.CounterVec
	CounterMisses prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_notifications_total",
			Help: "Notifications by kind and outcome (delivered, silenced, dropped)",
		}, []string{"kind", "outcome"}),
		CounterMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_unread_counter_misses_total",
			Help: "Unread count lookups that had to recount from the store",
		}),
	}
}

func (m *Metrics) ObserveNotify(kind, outcome string) {
	m.Notifications.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncrementCounterMiss() {
	m.CounterMisses.Inc()
}
