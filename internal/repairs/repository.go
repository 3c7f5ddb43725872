package repairs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-works/atelier/internal/platform/db"
)

// Repository defines persistence operations for repairs.
type Repository interface {
	List(ctx context.Context, status Status) ([]Repair, error)
	Get(ctx context.Context, id int64) (*Repair, error)
	Create(ctx context.Context, rep *Repair) (*Repair, error)
	Transition(ctx context.Context, id int64, to Status, technicianID *int64) (*Repair, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const repairColumns = `id, client_id, equipment, issue, status, technician_id, created_at, updated_at`

func scanRepair(row pgx.Row) (*Repair, error) {
	var rep Repair
	err := row.Scan(&rep.ID, &rep.ClientID, &rep.Equipment, &rep.Issue, &rep.Status, &rep.TechnicianID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// List returns repairs, optionally filtered by status, newest first.
func (r *PGRepository) List(ctx context.Context, status Status) ([]Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE $1 = '' OR status = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("repairs: list: %w", err)
	}
	defer rows.Close()

	var out []Repair
	for rows.Next() {
		var rep Repair
		if err := rows.Scan(&rep.ID, &rep.ClientID, &rep.Equipment, &rep.Issue, &rep.Status, &rep.TechnicianID, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repairs: scan: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Get fetches one repair by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Repair, error) {
	rep, err := scanRepair(r.pool.QueryRow(ctx, `SELECT `+repairColumns+` FROM repairs WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("repairs: get %d: %w", id, err)
	}
	return rep, err
}

// Create inserts a new repair in the received state.
func (r *PGRepository) Create(ctx context.Context, rep *Repair) (*Repair, error) {
	const query = `
		INSERT INTO repairs (client_id, equipment, issue, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, rep.ClientID, rep.Equipment, rep.Issue, StatusReceived).
		Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repairs: create: %w", err)
	}
	rep.Status = StatusReceived
	return rep, nil
}

// Transition moves a repair to a new status inside a transaction so
// concurrent updates cannot skip a step.
func (r *PGRepository) Transition(ctx context.Context, id int64, to Status, technicianID *int64) (*Repair, error) {
	var rep *Repair
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanRepair(tx.QueryRow(ctx, `SELECT `+repairColumns+` FROM repairs WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if !CanTransition(current.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrBadTransition, current.Status, to)
		}
		const update = `
			UPDATE repairs
			SET status = $2, technician_id = COALESCE($3, technician_id), updated_at = now()
			WHERE id = $1
			RETURNING ` + repairColumns
		rep, err = scanRepair(tx.QueryRow(ctx, update, id, to, technicianID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

var _ Repository = (*PGRepository)(nil)
