package models

import (
	"strings"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
)

// FileRequest is the citizen payload for a new complaint.
type FileRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	WardID       string `json:"ward_id"`
	DepartmentID string `json:"department_id,omitempty"`
	Location     string `json:"location,omitempty"`
	Priority     string `json:"priority,omitempty"`
}

func (r *FileRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = NormalizeCategory(r.Category)
	r.WardID = strings.TrimSpace(r.WardID)
	r.DepartmentID = strings.TrimSpace(r.DepartmentID)
	r.Location = strings.TrimSpace(r.Location)
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
}

// Validate checks form rules and returns the parsed references.
func (r *FileRequest) Validate() (id.WardID, id.DepartmentID, error) {
	if r.Title == "" || r.Description == "" || r.Category == "" {
		return id.WardID{}, id.DepartmentID{}, dErrors.New(dErrors.CodeValidation, "title, description and category are required")
	}
	if err := ValidateTitle(r.Title); err != nil {
		return id.WardID{}, id.DepartmentID{}, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	wardID, err := id.ParseWardID(r.WardID)
	if err != nil {
		return id.WardID{}, id.DepartmentID{}, dErrors.New(dErrors.CodeValidation, "ward_id is required and must be valid")
	}
	var deptID id.DepartmentID
	if r.DepartmentID != "" {
		if deptID, err = id.ParseDepartmentID(r.DepartmentID); err != nil {
			return id.WardID{}, id.DepartmentID{}, dErrors.New(dErrors.CodeValidation, "department_id is invalid")
		}
	}
	if r.Priority != "" && !Priority(r.Priority).IsValid() {
		return id.WardID{}, id.DepartmentID{}, dErrors.New(dErrors.CodeValidation, "priority must be low, normal, high or urgent")
	}
	return wardID, deptID, nil
}

// AssignRequest names the staff member taking the complaint.
type AssignRequest struct {
	StaffID string `json:"staff_id"`
}

// StatusRequest moves a complaint to a new status.
type StatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// CommentRequest adds to the thread.
type CommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

// SLARequest sets a category deadline.
type SLARequest struct {
	Category        string `json:"category"`
	ResolutionHours int    `json:"resolution_hours"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	CitizenID  id.UserID
	WardID     id.WardID
	Status     Status
	AssigneeID id.UserID
	Category   string
	Page       httputil.Page
}

// Stats aggregates complaints for reporting.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	ByWard   map[string]int `json:"by_ward"`
	Overdue  int            `json:"overdue"`
}
