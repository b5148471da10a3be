package customers

import (
	"context"
	"errors"
	"strings"
)

// Service wraps customer persistence with input normalization. Access is
// enforced at the routing layer; customers carry no per-record grants.
type Service struct {
	repo *Repository
}

// NewService builds a Service instance.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns all customers, or a name/email search when query is set.
func (s *Service) List(ctx context.Context, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

// Get fetches one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new customer record.
func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	if err := normalize(&c); err != nil {
		return Customer{}, err
	}
	return s.repo.Create(ctx, c)
}

// Update modifies an existing customer record.
func (s *Service) Update(ctx context.Context, c Customer) (Customer, error) {
	if err := normalize(&c); err != nil {
		return Customer{}, err
	}
	return s.repo.Update(ctx, c)
}

// Delete removes a customer record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(c *Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		return errors.New("customers: name required")
	}
	return nil
}
