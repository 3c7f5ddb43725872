package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for clients.
type Repository interface {
	List(ctx context.Context, search string) ([]Client, error)
	Get(ctx context.Context, id int64) (*Client, error)
	Create(ctx context.Context, c *Client) (*Client, error)
	Update(ctx context.Context, c *Client) (*Client, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns clients ordered by name, optionally filtered by a
// case-insensitive name/email match.
func (r *PGRepository) List(ctx context.Context, search string) ([]Client, error) {
	const query = `
		SELECT id, name, email, COALESCE(phone, ''), COALESCE(address, ''), COALESCE(notes, ''),
		       created_at, updated_at
		FROM clients
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("clients: list: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("clients: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get fetches one client by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Client, error) {
	const query = `
		SELECT id, name, email, COALESCE(phone, ''), COALESCE(address, ''), COALESCE(notes, ''),
		       created_at, updated_at
		FROM clients
		WHERE id = $1`

	var c Client
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clients: get %d: %w", id, err)
	}
	return &c, nil
}

// Create inserts a new client.
func (r *PGRepository) Create(ctx context.Context, c *Client) (*Client, error) {
	const query = `
		INSERT INTO clients (name, email, phone, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, c.Name, c.Email, c.Phone, c.Address, c.Notes).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("clients: create: %w", err)
	}
	return c, nil
}

// Update rewrites the mutable fields of an existing client.
func (r *PGRepository) Update(ctx context.Context, c *Client) (*Client, error) {
	const query = `
		UPDATE clients
		SET name = $2, email = $3, phone = $4, address = $5, notes = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, c.ID, c.Name, c.Email, c.Phone, c.Address, c.Notes).
		Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clients: update %d: %w", c.ID, err)
	}
	return c, nil
}

var _ Repository = (*PGRepository)(nil)
