package audit

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Record is a persisted audit event as read back from the trail.
type Record struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	ActorID    int64     `json:"actorId,omitempty"`
	Route      string    `json:"route,omitempty"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	RemoteAddr string    `json:"remoteAddr,omitempty"`
	At         time.Time `json:"at"`
}

// Filters narrows a timeline query. Zero values match everything.
type Filters struct {
	Kind     string
	ActorID  int64
	Page     int
	PageSize int
}

func (f Filters) window() (limit, offset int) {
	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}

// Reader lists audit events, newest first.
type Reader interface {
	Timeline(ctx context.Context, f Filters) ([]Record, error)
}

// Timeline returns a page of audit events matching the filters.
func (r *Recorder) Timeline(ctx context.Context, f Filters) ([]Record, error) {
	const query = `
		SELECT id, kind, COALESCE(actor_id, 0), route, outcome, reason, remote_addr, occurred_at
		FROM audit_events
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = 0 OR actor_id = $2)
		ORDER BY occurred_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	limit, offset := f.window()
	rows, err := r.pool.Query(ctx, query, f.Kind, f.ActorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.ActorID, &rec.Route, &rec.Outcome, &rec.Reason, &rec.RemoteAddr, &rec.At); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ Reader = (*Recorder)(nil)
