// Package models holds the portal-wide summary report and its delivery
// schedules.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/email"
	platformstrings "civic/pkg/platform/strings"
)

type ComplaintSection struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	ByWard   map[string]int `json:"by_ward"`
	Overdue  int            `json:"overdue"`
}

// BillingSection amounts are in minor currency units.
type BillingSection struct {
	Issued      int64 `json:"issued"`
	Collected   int64 `json:"collected"`
	Outstanding int64 `json:"outstanding"`
	LateFees    int64 `json:"late_fees"`
}

type BudgetSection struct {
	Cycles    int `json:"cycles"`
	Proposals int `json:"proposals"`
	Votes     int `json:"votes"`
}

type Summary struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Complaints  ComplaintSection `json:"complaints"`
	Billing     BillingSection   `json:"billing"`
	Budget      BudgetSection    `json:"budget"`
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "frequency must be daily, weekly or monthly")
}

// After returns the first run time of this frequency after t.
func (f Frequency) After(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

const (
	MaxScheduleNameLength = 120
	MaxRecipients         = 20
)

type Schedule struct {
	ID         id.ScheduleID `json:"id"`
	Name       string        `json:"name"`
	Frequency  Frequency     `json:"frequency"`
	Recipients []string      `json:"recipients"`
	NextRunAt  time.Time     `json:"next_run_at"`
	LastRunAt  *time.Time    `json:"last_run_at,omitempty"`
	CreatedBy  id.UserID     `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewSchedule validates a schedule. A zero startAt schedules the first run
// one period from now.
func NewSchedule(scheduleID id.ScheduleID, name string, freq Frequency, recipients []string, startAt time.Time, createdBy id.UserID, now time.Time) (*Schedule, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxScheduleNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name must be 1 to 120 characters")
	}
	clean := platformstrings.Dedupe(recipients, email.Normalize)
	for _, addr := range clean {
		if !email.IsValid(addr) {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid recipient "+addr)
		}
	}
	if len(clean) == 0 || len(clean) > MaxRecipients {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "a schedule needs 1 to 20 recipients")
	}
	next := startAt
	switch {
	case next.IsZero():
		next = freq.After(now)
	case next.Before(now):
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "start_at must not be in the past")
	}
	return &Schedule{
		ID:         scheduleID,
		Name:       name,
		Frequency:  freq,
		Recipients: clean,
		NextRunAt:  next,
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}, nil
}

func (s *Schedule) Due(now time.Time) bool {
	return !now.Before(s.NextRunAt)
}

// Advance records a run at now and moves NextRunAt past now. Periods missed
// while the worker was down are skipped, not replayed.
func (s *Schedule) Advance(now time.Time) {
	next := s.NextRunAt
	for !next.After(now) {
		next = s.Frequency.After(next)
	}
	s.NextRunAt = next
	s.LastRunAt = &now
}

type Run struct {
	ID          id.RunID      `json:"id"`
	ScheduleID  id.ScheduleID `json:"schedule_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     Summary       `json:"summary"`
}

type ScheduleRequest struct {
	Name       string    `json:"name"`
	Frequency  string    `json:"frequency"`
	Recipients []string  `json:"recipients"`
	StartAt    time.Time `json:"start_at,omitzero"`
}
