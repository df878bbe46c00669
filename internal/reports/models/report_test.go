package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

var now = time.Date(2026, 1, 31, 6, 0, 0, 0, time.UTC)

func TestNewSchedule(t *testing.T) {
	s, err := NewSchedule(id.NewScheduleID(), " Weekly digest ", FrequencyWeekly,
		[]string{"Mayor@City.gov", "mayor@city.gov", "clerk@city.gov"}, time.Time{}, id.NewUserID(), now)
	require.NoError(t, err)
	assert.Equal(t, "Weekly digest", s.Name)
	assert.Equal(t, []string{"mayor@city.gov", "clerk@city.gov"}, s.Recipients)
	assert.Equal(t, now.AddDate(0, 0, 7), s.NextRunAt)

	tests := []struct {
		name       string
		label      string
		recipients []string
		startAt    time.Time
	}{
		{"blank name", "  ", []string{"a@city.gov"}, time.Time{}},
		{"no recipients", "Digest", nil, time.Time{}},
		{"bad recipient", "Digest", []string{"not-an-address"}, time.Time{}},
		{"start in the past", "Digest", []string{"a@city.gov"}, now.Add(-time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(id.NewScheduleID(), tt.label, FrequencyDaily, tt.recipients, tt.startAt, id.NewUserID(), now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation), "got %v", err)
		})
	}
}

func TestAdvanceSkipsMissedPeriods(t *testing.T) {
	s := &Schedule{Frequency: FrequencyDaily, NextRunAt: now}
	late := now.Add(3*24*time.Hour + time.Hour)
	require.True(t, s.Due(late))

	s.Advance(late)
	assert.Equal(t, now.AddDate(0, 0, 4), s.NextRunAt)
	assert.Equal(t, late, *s.LastRunAt)
	assert.False(t, s.Due(late))
}

func TestMonthlyFollowsCalendar(t *testing.T) {
	s := &Schedule{Frequency: FrequencyMonthly, NextRunAt: now}
	s.Advance(now)
	// Go normalises 31 February to 3 March.
	assert.Equal(t, time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC), s.NextRunAt)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)
	_, err = ParseFrequency("hourly")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
