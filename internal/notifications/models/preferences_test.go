package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

func at(hhmm string) time.Time {
	t, _ := time.Parse(clockLayout, hhmm)
	return time.Date(2026, 5, 4, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func TestQuietHoursContains(t *testing.T) {
	overnight := QuietHours{Enabled: true, Start: "22:00", End: "07:00"}
	daytime := QuietHours{Enabled: true, Start: "12:30", End: "14:00"}

	tests := []struct {
		name  string
		q     QuietHours
		clock string
		want  bool
	}{
		{"overnight before start", overnight, "21:59", false},
		{"overnight at start", overnight, "22:00", true},
		{"overnight after midnight", overnight, "03:15", true},
		{"overnight end is exclusive", overnight, "07:00", false},
		{"daytime inside", daytime, "13:00", true},
		{"daytime outside", daytime, "14:30", false},
		{"disabled", QuietHours{Start: "00:00", End: "23:59"}, "12:00", false},
		{"equal bounds are empty", QuietHours{Enabled: true, Start: "09:00", End: "09:00"}, "09:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Contains(at(tt.clock)))
		})
	}
}

func TestQuietUsesTimezone(t *testing.T) {
	p := DefaultPreferences(id.NewUserID())
	p.QuietHours = QuietHours{Enabled: true, Start: "22:00", End: "07:00"}
	p.Timezone = "Asia/Kolkata"

	// 18:00 UTC is 23:30 in Kolkata.
	assert.True(t, p.Quiet(time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)))
	// 06:00 UTC is 11:30 in Kolkata.
	assert.False(t, p.Quiet(time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)))
}

func TestApplyMergesPatch(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	p := DefaultPreferences(id.NewUserID())
	p.Categories[KindNotice] = false

	off := false
	tz := "Europe/Berlin"
	require.NoError(t, p.Apply(&PreferencesPatch{
		Push:       &off,
		Categories: map[string]bool{"billing": false},
		Timezone:   &tz,
	}, now))

	assert.True(t, p.Email, "untouched fields keep their value")
	assert.False(t, p.Push)
	assert.False(t, p.Allows(KindNotice), "earlier opt-outs survive a merge")
	assert.False(t, p.Allows(KindBilling))
	assert.True(t, p.Allows(KindComplaint))
	assert.Equal(t, tz, p.Timezone)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestApplyRejectsBadInputWithoutChanges(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	bad := "Mars/Olympus_Mons"
	off := false

	tests := []struct {
		name  string
		patch PreferencesPatch
	}{
		{"unknown timezone", PreferencesPatch{Timezone: &bad}},
		{"unknown category", PreferencesPatch{Categories: map[string]bool{"gossip": false}}},
		{"system cannot be muted", PreferencesPatch{Categories: map[string]bool{"system": false}}},
		{"malformed quiet hours", PreferencesPatch{Email: &off, QuietHours: &QuietHours{Enabled: true, Start: "25:00", End: "07:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPreferences(id.NewUserID())
			err := p.Apply(&tt.patch, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			assert.Equal(t, DefaultPreferences(p.UserID), p)
		})
	}
}

func TestNewNotification(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	n, err := NewNotification(id.NewNotificationID(), id.NewUserID(), KindBilling, "  Bill issued  ", "", "/bills/1", now)
	require.NoError(t, err)
	assert.Equal(t, "Bill issued", n.Title)
	assert.False(t, n.IsRead())

	assert.True(t, n.MarkRead(now))
	assert.False(t, n.MarkRead(now.Add(time.Hour)))
	assert.Equal(t, now, *n.ReadAt)

	_, err = NewNotification(id.NewNotificationID(), id.UserID{}, KindBilling, "x", "", "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewNotification(id.NewNotificationID(), id.NewUserID(), Kind("gossip"), "x", "", "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
