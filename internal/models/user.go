package models

import (
	"strings"
	"time"
)

// UserRole represents the role of a user in the system
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID                   int        `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Email                string     `json:"email" db:"email"`
	PasswordHash         string     `json:"-" db:"password_hash"`
	Role                 UserRole   `json:"role" db:"role"`
	PasswordResetToken   *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAdmin returns true if the user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsOrganizer returns true if the user is an organizer
func (u *User) IsOrganizer() bool {
	return u.Role == RoleOrganizer
}

// CanCreateEvents returns true if the user can create events
func (u *User) CanCreateEvents() bool {
	return u.Role == RoleOrganizer || u.Role == RoleAdmin
}

// RegisterRequest is the payload for account registration. Admin accounts
// cannot be self-registered.
type RegisterRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=100"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=6,max=128"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=user organizer"`
}

func (req *RegisterRequest) Normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = RoleUser
	}
}

func (req *RegisterRequest) Validate() error {
	return validateStruct(req)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (req *LoginRequest) Validate() error {
	return validateStruct(req)
}

// ProfileUpdateRequest holds the fields a user may change on their own account.
type ProfileUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=128"`
}

func (req *ProfileUpdateRequest) Validate() error {
	if req.Name == nil && req.Email == nil && req.Password == nil {
		return NewValidationError("no fields to update")
	}
	return validateStruct(req)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (req *PasswordResetRequest) Validate() error {
	return validateStruct(req)
}

type PasswordResetCompleteRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

func (req *PasswordResetCompleteRequest) Validate() error {
	return validateStruct(req)
}

type RoleUpdateRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=user organizer admin"`
}

func (req *RoleUpdateRequest) Validate() error {
	return validateStruct(req)
}

// UserFilter narrows admin user listings
type UserFilter struct {
	Role   UserRole
	Limit  int
	Offset int
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
