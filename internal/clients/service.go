package clients

import (
	"context"
	"errors"
	"strings"
)

// Service wraps client business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns clients matching the optional search term.
func (s *Service) List(ctx context.Context, search string) ([]Client, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

// Get fetches one client.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, c Client) (*Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Name == "" {
		return nil, errors.New("clients: name required")
	}
	return s.repo.Create(ctx, &c)
}

// Update validates and rewrites an existing client.
func (s *Service) Update(ctx context.Context, c Client) (*Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Name == "" {
		return nil, errors.New("clients: name required")
	}
	return s.repo.Update(ctx, &c)
}
