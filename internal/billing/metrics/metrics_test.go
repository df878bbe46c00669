package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePayment(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementIssued("water")
	m.ObservePayment("card", 1020, 20)
	m.ObservePayment("cash", 500, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Issued.WithLabelValues("water")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Payments.WithLabelValues("card")))
	assert.Equal(t, 1520.0, testutil.ToFloat64(m.Collected))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.LateFees))
}
