package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Votes       *prometheus.CounterVec
	Funded      prometheus.Counter
	FundedSpend prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Votes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_budget_votes_total",
			Help: "Budget votes by action (cast or withdrawn)",
		}, []string{"action"}),
		Funded: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_budget_proposals_funded_total",
			Help: "Proposals funded when cycles close",
		}),
		FundedSpend: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_budget_funded_minor_units_total",
			Help: "Budget committed to funded proposals, in minor currency units",
		}),
	}
}

func (m *Metrics) IncrementVote(action string) {
	m.Votes.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveClose(funded int, spend int64) {
	m.Funded.Add(float64(funded))
	m.FundedSpend.Add(float64(spend))
}
