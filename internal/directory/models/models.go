package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

const (
	MinNameLength     = 2
	MaxNameLength     = 128
	MaxWardCodeLength = 16
	MaxZoneLength     = 64
	MaxDescLength     = 1000
)

// Ward is an administrative sub-district. Complaints, citizens, staff
// jurisdiction and budget cycles are scoped by ward.
type Ward struct {
	ID        id.WardID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Zone      string    `json:"zone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Department is a municipal service line that complaints are routed to.
type Department struct {
	ID          id.DepartmentID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "name must be 2 to 128 characters")
	}
	return nil
}

// NormalizeCode trims and upper-cases a ward code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCode(code string) error {
	if code == "" || len(code) > MaxWardCodeLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "code must be 1 to 16 characters")
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return dErrors.New(dErrors.CodeInvariantViolation, "code may contain letters, digits and dashes")
		}
	}
	return nil
}

func validateZone(zone string) error {
	if utf8.RuneCountInString(zone) > MaxZoneLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "zone must be at most 64 characters")
	}
	return nil
}

// NewWard validates and builds a ward. code is normalised.
func NewWard(wardID id.WardID, name, code, zone string, now time.Time) (*Ward, error) {
	if wardID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ward ID cannot be nil")
	}
	name = strings.TrimSpace(name)
	code = NormalizeCode(code)
	zone = strings.TrimSpace(zone)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := validateZone(zone); err != nil {
		return nil, err
	}
	return &Ward{ID: wardID, Name: name, Code: code, Zone: zone, CreatedAt: now}, nil
}

// NewDepartment validates and builds an active department.
func NewDepartment(deptID id.DepartmentID, name, description string, now time.Time) (*Department, error) {
	if deptID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "department ID cannot be nil")
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(description) > MaxDescLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "description must be at most 1000 characters")
	}
	return &Department{
		ID:          deptID,
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deactivate hides the department from routing. It stays readable.
func (d *Department) Deactivate(now time.Time) error {
	if !d.IsActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "department is already inactive")
	}
	d.IsActive = false
	d.UpdatedAt = now
	return nil
}

// WardRequest creates or replaces a ward's attributes.
type WardRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Zone string `json:"zone,omitempty"`
}

// WardPatch is a partial ward update.
type WardPatch struct {
	Name *string `json:"name,omitempty"`
	Code *string `json:"code,omitempty"`
	Zone *string `json:"zone,omitempty"`
}

// Apply validates every field before touching w.
func (p *WardPatch) Apply(w *Ward) error {
	next := *w
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Code != nil {
		next.Code = NormalizeCode(*p.Code)
	}
	if p.Zone != nil {
		next.Zone = strings.TrimSpace(*p.Zone)
	}
	if err := validateName(next.Name); err != nil {
		return err
	}
	if err := validateCode(next.Code); err != nil {
		return err
	}
	if err := validateZone(next.Zone); err != nil {
		return err
	}
	*w = next
	return nil
}

// DepartmentRequest creates a department.
type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DepartmentPatch is a partial department update.
type DepartmentPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p *DepartmentPatch) Apply(d *Department, now time.Time) error {
	next := *d
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if err := validateName(next.Name); err != nil {
		return err
	}
	if utf8.RuneCountInString(next.Description) > MaxDescLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "description must be at most 1000 characters")
	}
	next.UpdatedAt = now
	*d = next
	return nil
}
