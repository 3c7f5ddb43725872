package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-works/atelier/internal/authz"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, name, password_hash, role,
		       COALESCE(attributes, '{}'::jsonb), is_active, created_at, updated_at
		FROM users
		WHERE email = $1`

	var (
		user     User
		role     string
		rawAttrs []byte
	)
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&role, &rawAttrs, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user by email: %w", err)
	}
	user.Role = authz.Role(role)
	if len(rawAttrs) > 0 {
		if err := json.Unmarshal(rawAttrs, &user.Attributes); err != nil {
			return nil, fmt.Errorf("auth: decode attributes: %w", err)
		}
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
