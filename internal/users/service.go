package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-works/atelier/internal/authz"
)

// Invalidator drops a cached principal after an account change so the
// next request observes the new role or active flag.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Service handles account administration logic.
type Service struct {
	repo     Repository
	registry *authz.Registry
	cache    Invalidator
}

// NewService builds a Service instance. cache may be nil when no
// principal cache is configured.
func NewService(repo Repository, registry *authz.Registry, cache Invalidator) *Service {
	return &Service{repo: repo, registry: registry, cache: cache}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account with an initial password.
func (s *Service) Create(ctx context.Context, a Account, password string) (*Account, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Name = strings.TrimSpace(a.Name)
	if !s.registry.KnowsRole(a.Role) {
		return nil, ErrUnknownRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &a, string(hash))
}

// ChangeRole assigns a new role to the account and drops its cached
// principal. Administrators cannot change their own role.
func (s *Service) ChangeRole(ctx context.Context, actorID, id int64, role authz.Role) error {
	if actorID == id {
		return ErrSelfChange
	}
	if !s.registry.KnowsRole(role) {
		return ErrUnknownRole
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SetActive enables or disables the account. Administrators cannot
// deactivate themselves.
func (s *Service) SetActive(ctx context.Context, actorID, id int64, active bool) error {
	if actorID == id {
		return ErrSelfChange
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, id)
}
