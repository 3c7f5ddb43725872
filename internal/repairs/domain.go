package repairs

import (
	"errors"
	"time"
)

// Status tracks a repair through the workshop.
type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
)

// transitions lists the allowed status moves.
var transitions = map[Status][]Status{
	StatusReceived:   {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusReceived},
	StatusCompleted:  {StatusDelivered, StatusInProgress},
}

// CanTransition reports whether moving from one status to another is
// allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Repair represents a repair order for a client's equipment.
type Repair struct {
	ID           int64     `json:"id"`
	ClientID     int64     `json:"client_id"`
	Equipment    string    `json:"equipment"`
	Issue        string    `json:"issue"`
	Status       Status    `json:"status"`
	TechnicianID *int64    `json:"technician_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the repair does not exist.
	ErrNotFound = errors.New("repairs: not found")
	// ErrBadTransition indicates a forbidden status move.
	ErrBadTransition = errors.New("repairs: invalid status transition")
)
