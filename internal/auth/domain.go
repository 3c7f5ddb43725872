package auth

import (
	"errors"
	"time"

	"github.com/atelier-works/atelier/internal/authz"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         authz.Role
	Attributes   map[string]string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrInvalidCredentials indicates login failure. Unknown accounts,
// deactivated accounts and wrong passwords are indistinguishable to
// the caller.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")
