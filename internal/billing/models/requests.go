package models

import (
	"strings"
	"time"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
)

// IssueRequest is the admin payload for a new bill.
type IssueRequest struct {
	CitizenID   string    `json:"citizen_id"`
	Kind        string    `json:"kind"`
	Reference   string    `json:"reference"`
	Description string    `json:"description,omitempty"`
	Amount      int64     `json:"amount"`
	DueDate     time.Time `json:"due_date"`
}

func (r *IssueRequest) Normalize() {
	r.CitizenID = strings.TrimSpace(r.CitizenID)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	r.Reference = strings.TrimSpace(r.Reference)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate checks form rules and returns the parsed citizen.
func (r *IssueRequest) Validate() (id.UserID, error) {
	citizenID, err := id.ParseUserID(r.CitizenID)
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "citizen_id is required and must be valid")
	}
	if r.Reference == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	if r.Amount <= 0 {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	if r.DueDate.IsZero() {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "due_date is required")
	}
	if !ValidDueDate(r.DueDate) {
		return id.UserID{}, dErrors.New(dErrors.CodeValidation, "due_date must fall between years 2000 and 2199")
	}
	return citizenID, nil
}

type PayRequest struct {
	Method string `json:"method"`
}

// Filter narrows List. Overdue selects unpaid bills past due at Now.
type Filter struct {
	CitizenID id.UserID
	Status    Status
	Overdue   bool
	Now       time.Time
	Page      httputil.Page
}

func (f Filter) Matches(b *Bill) bool {
	switch {
	case !f.CitizenID.IsNil() && b.CitizenID != f.CitizenID:
		return false
	case f.Status != "" && b.Status != f.Status:
		return false
	case f.Overdue && !b.IsOverdue(f.Now):
		return false
	}
	return true
}

// Stats aggregates billing totals in minor units.
type Stats struct {
	Bills       int   `json:"bills"`
	Issued      int64 `json:"issued"`
	Collected   int64 `json:"collected"`
	Outstanding int64 `json:"outstanding"`
	Overdue     int   `json:"overdue"`
	LateFees    int64 `json:"late_fees"`
}
