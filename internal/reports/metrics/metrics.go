package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Runs            *prometheus.CounterVec
	SummaryDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_report_runs_total",
			Help: "Scheduled report runs by outcome (generated, skipped, failed)",
		}, []string{"outcome"}),
		SummaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "civic_report_summary_duration_seconds",
			Help:    "Time spent gathering a portal summary",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementRun(outcome string) {
	m.Runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSummary(d time.Duration) {
	m.SummaryDuration.Observe(d.Seconds())
}
