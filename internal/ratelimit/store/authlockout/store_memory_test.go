package authlockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/ratelimit/models"
)

func TestInMemoryRecordFailureResetsStaleCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	r, err := s.RecordFailure(ctx, "k", t0, t0.Add(-15*time.Minute), t0.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, r.FailureCount)
	assert.Equal(t, 1, r.DailyFailures)

	t1 := t0.Add(time.Minute)
	r, err = s.RecordFailure(ctx, "k", t1, t1.Add(-15*time.Minute), t1.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, r.FailureCount)
	assert.Equal(t, 2, r.DailyFailures)

	// Past the window but inside the day.
	t2 := t1.Add(time.Hour)
	r, err = s.RecordFailure(ctx, "k", t2, t2.Add(-15*time.Minute), t2.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, r.FailureCount)
	assert.Equal(t, 3, r.DailyFailures)

	t3 := t2.Add(25 * time.Hour)
	r, err = s.RecordFailure(ctx, "k", t3, t3.Add(-15*time.Minute), t3.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, r.FailureCount)
	assert.Equal(t, 1, r.DailyFailures)
	assert.Equal(t, t3, r.LastFailureAt)
}

func TestInMemoryGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	until := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Update(ctx, &models.AuthLockout{Identifier: "k", DailyFailures: 10, LockedUntil: &until}))

	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	got.LockedUntil = nil
	got.DailyFailures = 0

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, again.LockedUntil)
	assert.Equal(t, 10, again.DailyFailures)

	require.NoError(t, s.Clear(ctx, "k"))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
