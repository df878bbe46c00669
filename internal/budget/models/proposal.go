package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

type ProposalStatus string

const (
	ProposalSubmitted ProposalStatus = "submitted"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalFunded    ProposalStatus = "funded"
)

func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalSubmitted, ProposalApproved, ProposalRejected, ProposalFunded:
		return true
	}
	return false
}

const (
	MinProposalTitle      = 5
	MaxProposalTitle      = 150
	MaxProposalDescLength = 2000
)

type Proposal struct {
	ID            id.ProposalID  `json:"id"`
	CycleID       id.CycleID     `json:"cycle_id"`
	AuthorID      id.UserID      `json:"author_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	EstimatedCost int64          `json:"estimated_cost"`
	Status        ProposalStatus `json:"status"`
	VoteCount     int            `json:"vote_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewProposal validates a submission against its cycle's budget.
func NewProposal(proposalID id.ProposalID, cycle *Cycle, authorID id.UserID, title, description string, cost int64, now time.Time) (*Proposal, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case proposalID.IsNil() || authorID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "proposal and author IDs are required")
	case utf8.RuneCountInString(title) < MinProposalTitle || utf8.RuneCountInString(title) > MaxProposalTitle:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title must be 5 to 150 characters")
	case utf8.RuneCountInString(description) > MaxProposalDescLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "description must be at most 2000 characters")
	case cost <= 0:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "estimated cost must be greater than zero")
	case cost > cycle.TotalBudget:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "estimated cost exceeds the cycle budget")
	}
	return &Proposal{
		ID:            proposalID,
		CycleID:       cycle.ID,
		AuthorID:      authorID,
		Title:         title,
		Description:   description,
		EstimatedCost: cost,
		Status:        ProposalSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Review approves or rejects a submitted proposal.
func (p *Proposal) Review(approve bool, now time.Time) error {
	if p.Status != ProposalSubmitted {
		return dErrors.New(dErrors.CodeInvariantViolation, "proposal was already reviewed")
	}
	p.Status = ProposalRejected
	if approve {
		p.Status = ProposalApproved
	}
	p.UpdatedAt = now
	return nil
}

func (p *Proposal) MarkFunded(now time.Time) error {
	if p.Status != ProposalApproved {
		return dErrors.New(dErrors.CodeInvariantViolation, "only approved proposals can be funded")
	}
	p.Status = ProposalFunded
	p.UpdatedAt = now
	return nil
}

// Votable reports whether citizens may vote for the proposal.
func (p *Proposal) Votable() bool {
	return p.Status == ProposalApproved
}

// Vote is one citizen's support for one proposal.
type Vote struct {
	CycleID    id.CycleID    `json:"cycle_id"`
	ProposalID id.ProposalID `json:"proposal_id"`
	CitizenID  id.UserID     `json:"citizen_id"`
	CastAt     time.Time     `json:"cast_at"`
}
