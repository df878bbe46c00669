package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued    *prometheus.CounterVec
	Payments  *prometheus.CounterVec
	Collected prometheus.Counter
	LateFees  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_bills_issued_total",
			Help: "Bills issued by kind",
		}, []string{"kind"}),
		Payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_payments_total",
			Help: "Bill payments by method",
		}, []string{"method"}),
		Collected: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_payments_collected_minor_units_total",
			Help: "Amount collected including late fees, in minor currency units",
		}),
		LateFees: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_late_fees_collected_minor_units_total",
			Help: "Late fees collected, in minor currency units",
		}),
	}
}

func (m *Metrics) IncrementIssued(kind string) {
	m.Issued.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObservePayment(method string, total, lateFee int64) {
	m.Payments.WithLabelValues(method).Inc()
	m.Collected.Add(float64(total))
	m.LateFees.Add(float64(lateFee))
}
