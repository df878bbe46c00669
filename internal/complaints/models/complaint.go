package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
	StatusReopened   Status = "reopened"
)

// transitions lists the legal next states. Rejected and closed are terminal.
var transitions = map[Status][]Status{
	StatusSubmitted:  {StatusAssigned, StatusRejected},
	StatusAssigned:   {StatusInProgress, StatusSubmitted, StatusRejected},
	StatusInProgress: {StatusResolved, StatusAssigned},
	StatusResolved:   {StatusClosed, StatusReopened},
	StatusReopened:   {StatusAssigned},
	StatusRejected:   nil,
	StatusClosed:     nil,
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// IsOpen reports whether work is still owed on the complaint.
func (s Status) IsOpen() bool {
	return s != StatusResolved && !s.IsTerminal()
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid complaint status")
	}
	return status, nil
}

// Priority orders the triage queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const (
	MinTitleLength       = 5
	MaxTitleLength       = 150
	MinDescriptionLength = 10
	MaxDescriptionLength = 5000
	MaxLocationLength    = 255
	MaxNoteLength        = 2000
	MaxCategoryLength    = 50
)

// NormalizeCategory lower-cases and trims a category slug.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// ValidateCategory accepts 2..50 character slugs of letters, digits and
// underscores.
func ValidateCategory(category string) error {
	if len(category) < 2 || len(category) > MaxCategoryLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "category must be 2 to 50 characters")
	}
	for _, r := range category {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return dErrors.New(dErrors.CodeInvariantViolation, "category may contain lowercase letters, digits and underscores")
		}
	}
	return nil
}

// ValidateTitle enforces the 5..150 character bound.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "title must be at least 5 characters")
	}
	if n > MaxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "title must be at most 150 characters")
	}
	return nil
}

// Complaint is a citizen service request.
type Complaint struct {
	ID             id.ComplaintID  `json:"id"`
	CitizenID      id.UserID       `json:"citizen_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	WardID         id.WardID       `json:"ward_id"`
	DepartmentID   id.DepartmentID `json:"department_id,omitzero"`
	Location       string          `json:"location,omitempty"`
	Priority       Priority        `json:"priority"`
	Status         Status          `json:"status"`
	AssigneeID     id.UserID       `json:"assignee_id,omitzero"`
	DueAt          time.Time       `json:"due_at"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	ResolutionNote string          `json:"resolution_note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewComplaint validates and builds a submitted complaint due at dueAt.
func NewComplaint(complaintID id.ComplaintID, citizenID id.UserID, title, description, category string,
	wardID id.WardID, deptID id.DepartmentID, location string, priority Priority, dueAt, now time.Time,
) (*Complaint, error) {
	if complaintID.IsNil() || citizenID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complaint and citizen IDs are required")
	}
	if wardID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ward is required")
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	location = strings.TrimSpace(location)
	category = NormalizeCategory(category)
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(description)
	if n < MinDescriptionLength || n > MaxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "description must be 10 to 5000 characters")
	}
	if err := ValidateCategory(category); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "location must be at most 255 characters")
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "priority must be low, normal, high or urgent")
	}
	if !dueAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "due time must be after filing time")
	}
	return &Complaint{
		ID:           complaintID,
		CitizenID:    citizenID,
		Title:        title,
		Description:  description,
		Category:     category,
		WardID:       wardID,
		DepartmentID: deptID,
		Location:     location,
		Priority:     priority,
		Status:       StatusSubmitted,
		DueAt:        dueAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Assign sets the assignee. From submitted, reopened or in_progress the
// complaint moves to assigned; an assigned complaint just changes hands.
func (c *Complaint) Assign(staffID id.UserID, now time.Time) error {
	if staffID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "assignee is required")
	}
	if c.Status == StatusAssigned {
		if c.AssigneeID == staffID {
			return dErrors.New(dErrors.CodeInvariantViolation, "complaint is already assigned to this staff member")
		}
	} else if !c.Status.CanTransitionTo(StatusAssigned) {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot assign a complaint that is "+string(c.Status))
	}
	c.Status = StatusAssigned
	c.AssigneeID = staffID
	c.UpdatedAt = now
	return nil
}

// TransitionTo moves the complaint along the transition table. note is kept
// as the resolution note when resolving or rejecting.
func (c *Complaint) TransitionTo(target Status, note string, now time.Time) error {
	if !c.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot move complaint from "+string(c.Status)+" to "+string(target))
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "note must be at most 2000 characters")
	}
	switch target {
	case StatusAssigned:
		if c.AssigneeID.IsNil() {
			return dErrors.New(dErrors.CodeInvariantViolation, "assign a staff member first")
		}
	case StatusSubmitted:
		c.AssigneeID = id.UserID{}
	case StatusResolved:
		if note == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "a resolution note is required")
		}
		resolved := now
		c.ResolvedAt = &resolved
		c.ResolutionNote = note
	case StatusRejected:
		if note == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "a rejection reason is required")
		}
		c.ResolutionNote = note
	case StatusReopened:
		c.ResolvedAt = nil
		c.ResolutionNote = ""
		c.AssigneeID = id.UserID{}
	}
	c.Status = target
	c.UpdatedAt = now
	return nil
}

// Reopen returns a resolved complaint to the queue when asked within window
// of its resolution.
func (c *Complaint) Reopen(now time.Time, window time.Duration) error {
	if c.Status != StatusResolved || c.ResolvedAt == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "only resolved complaints can be reopened")
	}
	if now.Sub(*c.ResolvedAt) > window {
		return dErrors.New(dErrors.CodeInvariantViolation, "the reopen window has passed")
	}
	return c.TransitionTo(StatusReopened, "", now)
}

// IsOverdue reports whether the complaint is still open past its due time.
func (c *Complaint) IsOverdue(now time.Time) bool {
	return c.Status.IsOpen() && now.After(c.DueAt)
}

// HoldsAssignee reports whether the current status counts against the
// assignee's workload.
func (c *Complaint) HoldsAssignee() bool {
	return !c.AssigneeID.IsNil() && (c.Status == StatusAssigned || c.Status == StatusInProgress)
}
