package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks complaint intake and lifecycle movement.
type Metrics struct {
	Filed       *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Overdue     prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Filed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_complaints_filed_total",
			Help: "Complaints filed by category",
		}, []string{"category"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_complaint_transitions_total",
			Help: "Complaint status changes by target status",
		}, []string{"to"}),
		Overdue: f.NewGauge(prometheus.GaugeOpts{
			Name: "civic_complaints_overdue",
			Help: "Open complaints past their due time at the last overdue scan",
		}),
	}
}

func (m *Metrics) IncrementFiled(category string) {
	m.Filed.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) SetOverdue(n int) {
	m.Overdue.Set(float64(n))
}
