package principal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/atelier-works/atelier/internal/authz"
)

// Resolver loads the principal for a verified identity.
type Resolver interface {
	Resolve(ctx context.Context, userID int64) (*Principal, error)
}

// PGResolver reads principals from the PostgreSQL user store. Every
// lookup is bounded by a deadline so a slow store can never hang the
// request gate, and concurrent lookups for the same user are collapsed
// into a single query.
type PGResolver struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	group   singleflight.Group
}

// NewPGResolver constructs a resolver over the given pool. A zero
// timeout defaults to three seconds.
func NewPGResolver(pool *pgxpool.Pool, timeout time.Duration) *PGResolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PGResolver{pool: pool, timeout: timeout}
}

// Resolve fetches the principal by user id. Deactivated accounts
// resolve like deleted ones: ErrNotFound.
func (r *PGResolver) Resolve(ctx context.Context, userID int64) (*Principal, error) {
	result, err, _ := r.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.lookup(lookupCtx, userID)
	})
	if err != nil {
		return nil, err
	}
	// Clone so callers sharing a collapsed lookup never alias state.
	return result.(*Principal).Clone(), nil
}

func (r *PGResolver) lookup(ctx context.Context, userID int64) (*Principal, error) {
	const query = `
		SELECT id, email, name, role, COALESCE(attributes, '{}'::jsonb)
		FROM users
		WHERE id = $1 AND is_active`

	var (
		p        Principal
		role     string
		rawAttrs []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.Email, &p.Name, &role, &rawAttrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("principal: lookup user %d: %w", userID, err)
	}
	p.Role = authz.Role(role)
	if len(rawAttrs) > 0 {
		if err := json.Unmarshal(rawAttrs, &p.Attributes); err != nil {
			return nil, fmt.Errorf("principal: decode attributes for user %d: %w", userID, err)
		}
	}
	return &p, nil
}

var _ Resolver = (*PGResolver)(nil)
