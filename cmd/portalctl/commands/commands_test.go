package commands

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reportmodels "civic/internal/reports/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CIVIC_DATABASE_URL", "")
	t.Setenv("CIVIC_REDIS_URL", "")
	t.Setenv("CIVIC_KAFKA_BROKERS", "")
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestLateFee(t *testing.T) {
	tests := []struct {
		name    string
		at      string
		periods int64
		fee     int64
	}{
		{"on the due date", "2024-01-01T00:00:00Z", 0, 0},
		{"one second late", "2024-01-01T00:00:01Z", 1, 200},
		{"exactly one period", "2024-01-31T00:00:00Z", 1, 200},
		{"third period started", "2024-03-15T00:00:00Z", 3, 600},
		{"capped", "2025-01-01T00:00:00Z", 13, 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "late-fee", "--amount", "10000", "--due", "2024-01-01", "--at", tt.at, "--json")
			require.NoError(t, err)
			var q lateFeeQuote
			require.NoError(t, json.Unmarshal([]byte(out), &q))
			assert.Equal(t, tt.periods, q.Periods)
			assert.Equal(t, tt.fee, q.LateFee)
			assert.Equal(t, 10000+tt.fee, q.Total)
		})
	}
}

func TestLateFeeUsesConfiguredPolicy(t *testing.T) {
	t.Setenv("CIVIC_LATE_FEE_RATE", "0.05")
	out, err := run(t, "late-fee", "--amount", "1000", "--due", "2024-01-01", "--at", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "amount 1000, 1 late period(s), late fee 50, total 1050\n", out)
}

func TestLateFeeRejectsBadInput(t *testing.T) {
	_, err := run(t, "late-fee", "--amount", "0", "--due", "2024-01-01")
	require.Error(t, err)

	_, err = run(t, "late-fee", "--amount", "100", "--due", "yesterday")
	require.ErrorContains(t, err, "--due")
}

func TestReportInMemory(t *testing.T) {
	timeNow = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = time.Now })

	out, err := run(t, "report")
	require.NoError(t, err)
	var summary reportmodels.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.GeneratedAt.Equal(timeNow()))
	assert.Zero(t, summary.Complaints.Total)
}

func TestSimulateBudget(t *testing.T) {
	_, err := run(t, "simulate-budget", "not-an-id")
	require.Error(t, err)

	_, err = run(t, "simulate-budget", id.NewCycleID().String())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMigrateAndSeedNeedDatabase(t *testing.T) {
	_, err := run(t, "migrate")
	require.ErrorIs(t, err, errNoDatabase)

	_, err = run(t, "seed")
	require.ErrorIs(t, err, errNoDatabase)
}
