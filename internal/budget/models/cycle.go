package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

type CycleStatus string

const (
	CycleDraft     CycleStatus = "draft"
	CycleProposals CycleStatus = "proposals"
	CycleVoting    CycleStatus = "voting"
	CycleClosed    CycleStatus = "closed"
)

// nextStatus is the only forward move from each state.
var nextStatus = map[CycleStatus]CycleStatus{
	CycleDraft:     CycleProposals,
	CycleProposals: CycleVoting,
	CycleVoting:    CycleClosed,
}

func (s CycleStatus) IsValid() bool {
	switch s {
	case CycleDraft, CycleProposals, CycleVoting, CycleClosed:
		return true
	}
	return false
}

// Next returns the following phase, or false once closed.
func (s CycleStatus) Next() (CycleStatus, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

func ParseCycleStatus(s string) (CycleStatus, error) {
	status := CycleStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid cycle status")
	}
	return status, nil
}

const (
	MinVotesPerCitizen = 1
	MaxVotesPerCitizen = 10
	MaxCycleNameLength = 120
)

// Cycle is one round of participatory budgeting. A nil WardID makes the
// cycle city-wide.
type Cycle struct {
	ID              id.CycleID  `json:"id"`
	Name            string      `json:"name"`
	WardID          id.WardID   `json:"ward_id,omitzero"`
	TotalBudget     int64       `json:"total_budget"`
	VotesPerCitizen int         `json:"votes_per_citizen"`
	Status          CycleStatus `json:"status"`
	OpensAt         time.Time   `json:"opens_at"`
	ClosesAt        time.Time   `json:"closes_at"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func NewCycle(cycleID id.CycleID, name string, wardID id.WardID, totalBudget int64, votesPerCitizen int, opensAt, closesAt, now time.Time) (*Cycle, error) {
	name = strings.TrimSpace(name)
	switch {
	case cycleID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cycle ID is required")
	case name == "" || utf8.RuneCountInString(name) > MaxCycleNameLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name must be 1 to 120 characters")
	case totalBudget <= 0:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "total budget must be greater than zero")
	case votesPerCitizen < MinVotesPerCitizen || votesPerCitizen > MaxVotesPerCitizen:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "votes per citizen must be between 1 and 10")
	case opensAt.IsZero() || !closesAt.After(opensAt):
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "closes_at must be after opens_at")
	}
	return &Cycle{
		ID:              cycleID,
		Name:            name,
		WardID:          wardID,
		TotalBudget:     totalBudget,
		VotesPerCitizen: votesPerCitizen,
		Status:          CycleDraft,
		OpensAt:         opensAt,
		ClosesAt:        closesAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Advance moves the cycle one phase forward.
func (c *Cycle) Advance(now time.Time) error {
	next, ok := c.Status.Next()
	if !ok {
		return dErrors.New(dErrors.CodeInvariantViolation, "cycle is already closed")
	}
	c.Status = next
	c.UpdatedAt = now
	return nil
}

func (c *Cycle) AcceptsProposals() bool {
	return c.Status == CycleProposals
}

func (c *Cycle) AcceptsVotes() bool {
	return c.Status == CycleVoting
}

// Open reports whether citizens of wardID may take part.
func (c *Cycle) Open(wardID id.WardID) bool {
	return c.WardID.IsNil() || c.WardID == wardID
}
