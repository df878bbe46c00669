package models

import (
	"strings"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/email"
	"civic/pkg/platform/httputil"
)

// Password length is bounded by bcrypt's 72-byte input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at most 72 bytes")
	}
	return nil
}

func validateEmail(address string) error {
	if address == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(address) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return nil
}

func parseOptionalWard(raw string) (id.WardID, error) {
	if raw == "" {
		return id.WardID{}, nil
	}
	wardID, err := id.ParseWardID(raw)
	if err != nil {
		return id.WardID{}, dErrors.New(dErrors.CodeValidation, "ward_id is invalid")
	}
	return wardID, nil
}

// RegisterRequest is the citizen self-registration payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	WardID      string `json:"ward_id,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.WardID = strings.TrimSpace(r.WardID)
}

func (r *RegisterRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	_, err := parseOptionalWard(r.WardID)
	return err
}

// Ward returns the parsed ward; call after Validate.
func (r *RegisterRequest) Ward() id.WardID {
	wardID, _ := parseOptionalWard(r.WardID)
	return wardID
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// UpdateProfileRequest is a partial update; omitted fields are untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	WardID      *string `json:"ward_id,omitempty"`
}

// ToPatch validates and converts the request.
func (r *UpdateProfileRequest) ToPatch() (ProfilePatch, error) {
	var patch ProfilePatch
	if r.DisplayName != nil {
		name := strings.TrimSpace(*r.DisplayName)
		patch.DisplayName = &name
	}
	if r.Phone != nil {
		phone := strings.TrimSpace(*r.Phone)
		patch.Phone = &phone
	}
	if r.WardID != nil {
		wardID, err := parseOptionalWard(strings.TrimSpace(*r.WardID))
		if err != nil {
			return ProfilePatch{}, err
		}
		patch.WardID = &wardID
	}
	if patch.DisplayName == nil && patch.Phone == nil && patch.WardID == nil {
		return ProfilePatch{}, dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	return patch, nil
}

// CreateUserRequest is the admin payload for staff-side accounts.
type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	WardID      string `json:"ward_id,omitempty"`
}

func (r *CreateUserRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.WardID = strings.TrimSpace(r.WardID)
}

func (r *CreateUserRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if _, err := id.ParseRole(r.Role); err != nil {
		return dErrors.New(dErrors.CodeValidation, "role must be citizen, staff, supervisor or admin")
	}
	_, err := parseOptionalWard(r.WardID)
	return err
}

// ChangeRoleRequest is the admin role change payload.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// UserFilter narrows ListUsers. Zero values match everything.
type UserFilter struct {
	Role   id.Role
	Status UserStatus
	WardID id.WardID
	Page   httputil.Page
}
