package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

// UserStatus gates login. Inactive users keep their history but cannot
// authenticate.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// CanTransitionTo allows only active <-> inactive.
func (s UserStatus) CanTransitionTo(target UserStatus) bool {
	switch s {
	case UserStatusActive:
		return target == UserStatusInactive
	case UserStatusInactive:
		return target == UserStatusActive
	}
	return false
}

// ParseUserStatus validates external input.
func ParseUserStatus(s string) (UserStatus, error) {
	status := UserStatus(s)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status: must be active or inactive")
	}
	return status, nil
}

const (
	MaxDisplayNameLength = 100
	MaxPhoneLength       = 20
)

// User is a portal account: a citizen, or a staff, supervisor or admin
// account created by an admin.
type User struct {
	ID              id.UserID  `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Phone           string     `json:"phone,omitempty"`
	Role            id.Role    `json:"role"`
	WardID          id.WardID  `json:"ward_id,omitzero"`
	Status          UserStatus `json:"status"`
	PasswordHash    string     `json:"-"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	LastLoginDevice string     `json:"last_login_device,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewUser creates an active user, validating invariants.
func NewUser(userID id.UserID, email, displayName, phone string, role id.Role, wardID id.WardID, passwordHash string, now time.Time) (*User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user ID cannot be nil")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email must be a valid address")
	}
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	return &User{
		ID:           userID,
		Email:        email,
		DisplayName:  displayName,
		Phone:        phone,
		Role:         role,
		WardID:       wardID,
		Status:       UserStatusActive,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func validateDisplayName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "display name cannot be empty")
	}
	if n > MaxDisplayNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "display name must be at most 100 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if len(phone) < 7 || len(phone) > MaxPhoneLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "phone must be 7 to 20 characters")
	}
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9', r == ' ', r == '-':
		case r == '+' && i == 0:
		default:
			return dErrors.New(dErrors.CodeInvariantViolation, "phone may contain digits, spaces, dashes and a leading +")
		}
	}
	return nil
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Deactivate blocks future logins.
func (u *User) Deactivate(now time.Time) error {
	return u.transition(UserStatusInactive, now)
}

// Reactivate restores login.
func (u *User) Reactivate(now time.Time) error {
	return u.transition(UserStatusActive, now)
}

func (u *User) transition(target UserStatus, now time.Time) error {
	if !u.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already "+string(u.Status))
	}
	u.Status = target
	u.UpdatedAt = now
	return nil
}

// ChangeRole assigns a new role.
func (u *User) ChangeRole(role id.Role, now time.Time) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "role is invalid")
	}
	if u.Role == role {
		return dErrors.New(dErrors.CodeInvariantViolation, "user already has role "+role.String())
	}
	u.Role = role
	u.UpdatedAt = now
	return nil
}

// RecordLogin stamps the last successful login.
func (u *User) RecordLogin(now time.Time, device string) {
	u.LastLoginAt = &now
	u.LastLoginDevice = device
	u.UpdatedAt = now
}

// ProfilePatch carries optional profile changes; nil fields are untouched.
type ProfilePatch struct {
	DisplayName *string
	Phone       *string
	WardID      *id.WardID
}

// ApplyProfile applies patch after validating every provided field, so a
// rejected patch leaves the user unchanged.
func (u *User) ApplyProfile(patch ProfilePatch, now time.Time) error {
	if patch.DisplayName != nil {
		if err := validateDisplayName(*patch.DisplayName); err != nil {
			return err
		}
	}
	if patch.Phone != nil {
		if err := validatePhone(*patch.Phone); err != nil {
			return err
		}
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.WardID != nil {
		u.WardID = *patch.WardID
	}
	u.UpdatedAt = now
	return nil
}
