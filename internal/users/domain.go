// Package users stores accounts and their credentials.
package users

import (
	"time"

	"github.com/velora-pos/velora/internal/shared"
)

// User is an account. PasswordHash never leaves the package boundary in
// JSON form.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,min=2,max=120"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     shared.Role `json:"role" validate:"omitempty"`
}
