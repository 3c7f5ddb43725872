// Package audit records security-relevant events: logins and request
// gate rejections. Events are written asynchronously so the request
// path never waits on the audit table.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event kinds.
const (
	KindLogin     = "login"
	KindRejection = "rejection"
)

// Event is a single security audit record.
type Event struct {
	Kind       string    `json:"kind"`
	ActorID    int64     `json:"actor_id,omitempty"`
	Route      string    `json:"route,omitempty"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	At         time.Time `json:"at"`
}

// Writer persists audit events.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

// Recorder implements Writer against PostgreSQL.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder constructs a Recorder over the given pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Write inserts one audit event.
func (r *Recorder) Write(ctx context.Context, ev Event) error {
	const query = `
		INSERT INTO audit_events (kind, actor_id, route, outcome, reason, remote_addr, occurred_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, $7)`
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if _, err := r.pool.Exec(ctx, query,
		ev.Kind, ev.ActorID, ev.Route, ev.Outcome, ev.Reason, ev.RemoteAddr, ev.At.UTC()); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

var _ Writer = (*Recorder)(nil)
