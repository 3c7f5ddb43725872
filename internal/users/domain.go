package users

import (
	"errors"
	"time"

	"github.com/atelier-works/atelier/internal/authz"
)

// Account represents a console user account under administration.
type Account struct {
	ID         int64             `json:"id"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	Role       authz.Role        `json:"role"`
	Attributes map[string]string `json:"attributes,omitempty"`
	IsActive   bool              `json:"isActive"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

var (
	// ErrNotFound is returned when no account matches the id.
	ErrNotFound = errors.New("users: account not found")
	// ErrUnknownRole is returned when a role outside the registry is assigned.
	ErrUnknownRole = errors.New("users: unknown role")
	// ErrSelfChange is returned when an administrator edits their own account.
	ErrSelfChange = errors.New("users: cannot change own account")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("users: email already registered")
)
