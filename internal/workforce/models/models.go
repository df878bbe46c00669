package models

import (
	"math"
	"slices"
	"time"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

const (
	MinMaxLoad = 1
	MaxMaxLoad = 100
)

// StaffProfile is the workforce view of a staff account: where they work
// and how many open complaints they hold.
type StaffProfile struct {
	UserID       id.UserID       `json:"user_id"`
	DepartmentID id.DepartmentID `json:"department_id,omitzero"`
	WardIDs      []id.WardID     `json:"ward_ids"`
	CurrentLoad  int             `json:"current_load"`
	MaxLoad      int             `json:"max_load"`
	Active       bool            `json:"active"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewStaffProfile(userID id.UserID, deptID id.DepartmentID, wardIDs []id.WardID, maxLoad int, active bool, now time.Time) (*StaffProfile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "staff user is required")
	}
	if maxLoad < MinMaxLoad || maxLoad > MaxMaxLoad {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "max load must be between 1 and 100")
	}
	return &StaffProfile{
		UserID:       userID,
		DepartmentID: deptID,
		WardIDs:      dedupeWards(wardIDs),
		MaxLoad:      maxLoad,
		Active:       active,
		UpdatedAt:    now,
	}, nil
}

func dedupeWards(wardIDs []id.WardID) []id.WardID {
	out := make([]id.WardID, 0, len(wardIDs))
	for _, w := range wardIDs {
		if !w.IsNil() && !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}

func (p *StaffProfile) CoversWard(wardID id.WardID) bool {
	return slices.Contains(p.WardIDs, wardID)
}

// HasCapacity reports whether one more complaint fits.
func (p *StaffProfile) HasCapacity() bool {
	return p.Active && p.CurrentLoad < p.MaxLoad
}

func (p *StaffProfile) Workload() Workload {
	w := ComputeWorkload(p.CurrentLoad, p.MaxLoad)
	w.UserID = p.UserID
	return w
}

// SupervisorProfile scopes which wards a supervisor may reassign work in.
// An empty ward list grants no jurisdiction.
type SupervisorProfile struct {
	UserID       id.UserID       `json:"user_id"`
	DepartmentID id.DepartmentID `json:"department_id,omitzero"`
	WardIDs      []id.WardID     `json:"ward_ids"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewSupervisorProfile(userID id.UserID, deptID id.DepartmentID, wardIDs []id.WardID, now time.Time) (*SupervisorProfile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "supervisor user is required")
	}
	return &SupervisorProfile{
		UserID:       userID,
		DepartmentID: deptID,
		WardIDs:      dedupeWards(wardIDs),
		UpdatedAt:    now,
	}, nil
}

func (p *SupervisorProfile) Covers(wardID id.WardID) bool {
	return slices.Contains(p.WardIDs, wardID)
}

// Level buckets a workload percentage for display.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

// Workload is one staff member's utilisation.
type Workload struct {
	UserID      id.UserID `json:"user_id,omitzero"`
	CurrentLoad int       `json:"current_load"`
	MaxLoad     int       `json:"max_load"`
	Percentage  float64   `json:"percentage"`
	Level       Level     `json:"level"`
}

// ComputeWorkload derives the percentage current/max*100 clamped to
// [0,100]. No capacity reads as full, so such staff never look available.
func ComputeWorkload(current, maxLoad int) Workload {
	pct := 100.0
	if maxLoad > 0 {
		pct = float64(current) / float64(maxLoad) * 100
	}
	pct = math.Min(math.Max(pct, 0), 100)
	return Workload{
		CurrentLoad: current,
		MaxLoad:     maxLoad,
		Percentage:  math.Round(pct*10) / 10,
		Level:       LevelFor(pct),
	}
}

func LevelFor(pct float64) Level {
	switch {
	case pct >= 80:
		return LevelHigh
	case pct >= 50:
		return LevelModerate
	default:
		return LevelLow
	}
}

// StaffRequest creates or updates a staff profile.
type StaffRequest struct {
	DepartmentID string   `json:"department_id,omitempty"`
	WardIDs      []string `json:"ward_ids"`
	MaxLoad      int      `json:"max_load"`
	Active       *bool    `json:"active,omitempty"`
}

// SupervisorRequest creates or updates a supervisor profile.
type SupervisorRequest struct {
	DepartmentID string   `json:"department_id,omitempty"`
	WardIDs      []string `json:"ward_ids"`
}

type ReassignRequest struct {
	StaffID string `json:"staff_id"`
}

// ParseRefs validates the department and ward references of a profile
// request.
func ParseRefs(deptRaw string, wardRaw []string) (id.DepartmentID, []id.WardID, error) {
	var (
		deptID id.DepartmentID
		err    error
	)
	if deptRaw != "" {
		if deptID, err = id.ParseDepartmentID(deptRaw); err != nil {
			return id.DepartmentID{}, nil, dErrors.New(dErrors.CodeValidation, "department_id is invalid")
		}
	}
	wardIDs := make([]id.WardID, 0, len(wardRaw))
	for _, raw := range wardRaw {
		w, err := id.ParseWardID(raw)
		if err != nil {
			return id.DepartmentID{}, nil, dErrors.New(dErrors.CodeValidation, "ward_ids contains an invalid id")
		}
		wardIDs = append(wardIDs, w)
	}
	return deptID, wardIDs, nil
}

// StaffFilter narrows ListStaff. Zero values match everything.
type StaffFilter struct {
	WardID       id.WardID
	DepartmentID id.DepartmentID
	ActiveOnly   bool
}

func (f StaffFilter) Matches(p *StaffProfile) bool {
	switch {
	case !f.WardID.IsNil() && !p.CoversWard(f.WardID):
		return false
	case !f.DepartmentID.IsNil() && p.DepartmentID != f.DepartmentID:
		return false
	case f.ActiveOnly && !p.Active:
		return false
	}
	return true
}
