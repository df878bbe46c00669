package models

import (
	"strings"
	"time"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

type CycleRequest struct {
	Name            string    `json:"name"`
	WardID          string    `json:"ward_id,omitempty"`
	TotalBudget     int64     `json:"total_budget"`
	VotesPerCitizen int       `json:"votes_per_citizen"`
	OpensAt         time.Time `json:"opens_at"`
	ClosesAt        time.Time `json:"closes_at"`
}

// Ward parses the optional ward scope.
func (r *CycleRequest) Ward() (id.WardID, error) {
	raw := strings.TrimSpace(r.WardID)
	if raw == "" {
		return id.WardID{}, nil
	}
	wardID, err := id.ParseWardID(raw)
	if err != nil {
		return id.WardID{}, dErrors.New(dErrors.CodeValidation, "ward_id must be a valid ward id")
	}
	return wardID, nil
}

type ProposalRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	EstimatedCost int64  `json:"estimated_cost"`
}

type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

// Stats counts budgeting activity for reports.
type Stats struct {
	Cycles    int `json:"cycles"`
	Proposals int `json:"proposals"`
	Votes     int `json:"votes"`
}
