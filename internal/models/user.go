package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/smarttransit/backoffice-api/internal/domain"
)

// Role is a user's permission level inside an organization
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleOperator Role = "OPERATOR"
	RoleFinance  Role = "FINANCE"
	RoleClient   Role = "CLIENT"
)

// IsValid checks whether the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleOperator, RoleFinance, RoleClient:
		return true
	}
	return false
}

// UserStatus is the account state of a user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is a back-office or client account scoped to one organization
type User struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organization_id" db:"organization_id"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	FullName       string     `json:"full_name" db:"full_name"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	Document       *string    `json:"document,omitempty" db:"document"`
	Role           Role       `json:"role" db:"role"`
	Status         UserStatus `json:"status" db:"status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the user may log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the request body for POST /api/auth/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	User         *User  `json:"user"`
}

// CreateUserRequest is the request body for POST /api/users
type CreateUserRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
	Document *string `json:"document"`
	Role     Role    `json:"role" binding:"required"`
}

// Validate checks the create user request
func (r *CreateUserRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return domain.Invalid("email", "must be a valid address")
	}
	if len(r.Password) < 8 {
		return domain.Invalid("password", "must have at least 8 characters")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return domain.Invalid("full_name", "is required")
	}
	if !r.Role.IsValid() {
		return domain.Invalid("role", "unknown role")
	}
	if err := normalizePhone("phone", &r.Phone); err != nil {
		return err
	}
	return normalizeCPF("document", &r.Document)
}

// UpdateUserRequest is the request body for PUT /api/users/:id
type UpdateUserRequest struct {
	FullName *string     `json:"full_name"`
	Phone    *string     `json:"phone"`
	Role     *Role       `json:"role"`
	Status   *UserStatus `json:"status"`
	Password *string     `json:"password"`
}

// Validate checks the update user request
func (r *UpdateUserRequest) Validate() error {
	if r.FullName != nil && strings.TrimSpace(*r.FullName) == "" {
		return domain.Invalid("full_name", "cannot be empty")
	}
	if r.Role != nil && !r.Role.IsValid() {
		return domain.Invalid("role", "unknown role")
	}
	if r.Status != nil && *r.Status != UserStatusActive && *r.Status != UserStatusInactive {
		return domain.Invalid("status", "must be active or inactive")
	}
	if r.Password != nil && len(*r.Password) < 8 {
		return domain.Invalid("password", "must have at least 8 characters")
	}
	return normalizePhone("phone", &r.Phone)
}
