package users

import (
	"fmt"
	"time"

	"github.com/residence-hub/residence/internal/platform/httpx"
	"github.com/residence-hub/residence/internal/rbac"
)

var (
	// ErrSelfDelete is returned when a principal tries to delete its own account.
	ErrSelfDelete = fmt.Errorf("users: cannot delete the account you are logged in with: %w", httpx.ErrConflict)
	// ErrSelfLockout is returned when a principal tries to demote or deactivate its own account.
	ErrSelfLockout = fmt.Errorf("users: cannot demote or deactivate the account you are logged in with: %w", httpx.ErrConflict)
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = fmt.Errorf("users: username already exists: %w", httpx.ErrDuplicate)
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = fmt.Errorf("users: user not found: %w", httpx.ErrNotFound)
)

// User is a staff account able to log in to the back office.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	Role         rbac.Role  `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Principal projects the account onto the authorization principal.
func (u User) Principal() rbac.Principal {
	return rbac.Principal{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
	}
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Username    string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Role        string `json:"role" validate:"required,oneof=ADMIN STAFF ACCOUNTANT admin staff accountant"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateInput carries the fields for an account edit. An empty password or a
// missing is_active keeps the current value.
type UpdateInput struct {
	Username    string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password    string `json:"password" validate:"omitempty,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Role        string `json:"role" validate:"required,oneof=ADMIN STAFF ACCOUNTANT admin staff accountant"`
	IsActive    *bool  `json:"is_active"`
}
