package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-works/atelier/internal/authz"
)

// Repository defines persistence operations for account administration.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	Create(ctx context.Context, a *Account, passwordHash string) (*Account, error)
	SetRole(ctx context.Context, id int64, role authz.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, email, name, role, COALESCE(attributes, '{}'::jsonb), is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var attrs []byte
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &attrs, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &a.Attributes); err != nil {
			return nil, fmt.Errorf("users: decode attributes: %w", err)
		}
	}
	return &a, nil
}

// List returns all accounts ordered by email.
func (r *PGRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Get fetches one account by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: get %d: %w", id, err)
	}
	return a, nil
}

// Create inserts a new account with its password hash.
func (r *PGRepository) Create(ctx context.Context, a *Account, passwordHash string) (*Account, error) {
	const query = `
		INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, now(), now())
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, a.Email, a.Name, passwordHash, a.Role).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("users: create: %w", err)
	}
	a.IsActive = true
	return a, nil
}

// SetRole replaces the account's role.
func (r *PGRepository) SetRole(ctx context.Context, id int64, role authz.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("users: set role %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles whether the account may authenticate.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("users: set active %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
