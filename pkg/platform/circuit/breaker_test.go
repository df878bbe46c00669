package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// step is one Record call and the breaker position expected after it.
type step struct {
	fail bool
	open bool
}

func TestBreakerSequences(t *testing.T) {
	f := func(open bool) step { return step{fail: true, open: open} }
	s := func(open bool) step { return step{fail: false, open: open} }

	tests := []struct {
		name      string
		failures  int
		successes int
		steps     []step
	}{
		{"opens on the third consecutive failure", 3, 1,
			[]step{f(false), f(false), f(true)}},
		{"a success resets the failure streak", 3, 1,
			[]step{f(false), f(false), s(false), f(false), f(false), f(true)}},
		{"closes after the success threshold", 1, 2,
			[]step{f(true), s(true), s(false)}},
		{"a failure while open resets the success streak", 1, 3,
			[]step{f(true), s(true), s(true), f(true), s(true), s(true), s(false)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("redis", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			for i, st := range tt.steps {
				if st.fail {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
				assert.Equal(t, st.open, b.IsOpen(), "after step %d", i)
			}
		})
	}
}

func TestBreakerReportsTransitions(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2), WithSuccessThreshold(1))
	assert.Equal(t, "kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	// Already open: still fallback, no new transition.
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerDefaultsAndReset(t *testing.T) {
	b := New("ratelimit")
	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "default threshold is five failures")
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}
