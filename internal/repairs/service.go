package repairs

import (
	"context"
	"errors"
	"strings"
)

// Service wraps repair business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns repairs, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]Repair, error) {
	if status != "" && !knownStatus(status) {
		return nil, errors.New("repairs: unknown status filter")
	}
	return s.repo.List(ctx, status)
}

// Get fetches one repair.
func (s *Service) Get(ctx context.Context, id int64) (*Repair, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new repair order in the received state.
func (s *Service) Create(ctx context.Context, rep Repair) (*Repair, error) {
	rep.Equipment = strings.TrimSpace(rep.Equipment)
	rep.Issue = strings.TrimSpace(rep.Issue)
	if rep.ClientID <= 0 {
		return nil, errors.New("repairs: client required")
	}
	if rep.Equipment == "" {
		return nil, errors.New("repairs: equipment required")
	}
	return s.repo.Create(ctx, &rep)
}

// Transition moves a repair to a new status, optionally assigning the
// acting technician.
func (s *Service) Transition(ctx context.Context, id int64, to Status, technicianID *int64) (*Repair, error) {
	if !knownStatus(to) {
		return nil, ErrBadTransition
	}
	return s.repo.Transition(ctx, id, to, technicianID)
}

func knownStatus(s Status) bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusCompleted, StatusDelivered:
		return true
	}
	return false
}
