package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
)

var due = time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)

func TestLateFee(t *testing.T) {
	const day = 24 * time.Hour
	tests := []struct {
		name    string
		at      time.Time
		want    int64
		periods int64
	}{
		{"before due", due.Add(-day), 0, 0},
		{"exactly due", due, 0, 0},
		{"one minute late starts a period", due.Add(time.Minute), 200, 1},
		{"thirty days is still one period", due.Add(30 * day), 200, 1},
		{"day thirty one is the second period", due.Add(31 * day), 400, 2},
		{"capped at a quarter", due.Add(400 * day), 2500, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultLateFeePolicy.Fee(10_000, due, tt.at))
			assert.Equal(t, tt.periods, Periods(due, tt.at))
		})
	}
}

func TestLateFeeAncientDueDates(t *testing.T) {
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  time.Time
	}{
		{"eighteenth century", time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"mistyped year", time.Date(202, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"year one", time.Date(1, 1, 1, 0, 0, 0, 1, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Positive(t, Periods(tt.due, asOf))
			assert.Equal(t, int64(2500), DefaultLateFeePolicy.Fee(10_000, tt.due, asOf))
		})
	}
}

func TestLateFeeUncapped(t *testing.T) {
	p := LateFeePolicy{Rate: 0.01, Cap: -1}
	assert.Equal(t, int64(300), p.Fee(10_000, due, due.Add(61*24*time.Hour)))
}

func TestValidDueDate(t *testing.T) {
	assert.True(t, ValidDueDate(due))
	assert.False(t, ValidDueDate(time.Time{}))
	assert.False(t, ValidDueDate(time.Date(202, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, ValidDueDate(time.Date(2202, 3, 31, 0, 0, 0, 0, time.UTC)))

	req := IssueRequest{CitizenID: id.NewUserID().String(), Reference: "R-1", Amount: 100,
		DueDate: time.Date(202, 3, 31, 0, 0, 0, 0, time.UTC)}
	_, err := req.Validate()
	assert.Error(t, err)
}

func TestLateFeeRounding(t *testing.T) {
	p := LateFeePolicy{Rate: 0.01, Cap: 1}
	assert.Equal(t, int64(3), p.Fee(250, due, due.Add(time.Hour)), "half a unit rounds up")
	assert.Equal(t, int64(2), LateFeePolicy{Rate: 0.015, Cap: 1}.Fee(150, due, due.Add(time.Hour)))
}

func newBill(t *testing.T) *Bill {
	t.Helper()
	b, err := NewBill(id.NewBillID(), id.NewUserID(), KindWater, "WTR-2026-03", "", 10_000, due, due.Add(-20*24*time.Hour))
	require.NoError(t, err)
	return b
}

func TestNewBillValidation(t *testing.T) {
	_, err := NewBill(id.NewBillID(), id.NewUserID(), KindWater, "R1", "", 0, due, due)
	assert.Error(t, err)
	_, err = NewBill(id.NewBillID(), id.NewUserID(), Kind("parking"), "R1", "", 10, due, due)
	assert.Error(t, err)
	_, err = NewBill(id.NewBillID(), id.NewUserID(), KindWater, "  ", "", 10, due, due)
	assert.Error(t, err)
	_, err = NewBill(id.NewBillID(), id.NewUserID(), KindWater, "R1", "", 10, time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC), due)
	assert.Error(t, err, "implausible due date")
}

func TestQuoteAndPay(t *testing.T) {
	b := newBill(t)
	at := due.Add(45 * 24 * time.Hour)

	q := b.Quote(DefaultLateFeePolicy, at)
	assert.True(t, q.Overdue)
	assert.Equal(t, int64(400), q.LateFee)
	assert.Equal(t, int64(10_400), q.Total)

	p, err := NewPayment(id.NewPaymentID(), b, q, MethodCard, at)
	require.NoError(t, err)
	assert.Equal(t, int64(10_400), p.Total())
	assert.Len(t, p.Reference, len("PAY-")+8)

	require.NoError(t, b.MarkPaid(at))
	assert.False(t, b.IsOverdue(at))
	assert.Error(t, b.MarkPaid(at), "double payment")
	assert.Error(t, b.Cancel(at), "paid bills cannot be cancelled")
	assert.Zero(t, b.Quote(DefaultLateFeePolicy, at).LateFee)
}

func TestPaymentMethod(t *testing.T) {
	b := newBill(t)
	_, err := NewPayment(id.NewPaymentID(), b, b.Quote(DefaultLateFeePolicy, due), Method("barter"), due)
	assert.Error(t, err)
}
