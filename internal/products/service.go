package products

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/grants"
)

// ErrAccessDenied marks a product operation the caller's category grants do
// not cover.
var ErrAccessDenied = errors.New("products: access denied")

// GrantGate answers per-category access questions.
type GrantGate interface {
	CanAccessCategory(ctx context.Context, subject authz.Subject, module authz.ModuleKey, categoryID int64, action authz.Action) (authz.Decision, error)
	AllowedCategoryIDs(ctx context.Context, subject authz.Subject, action authz.Action) ([]int64, error)
}

// Service layers category-grant gating over product persistence. Every
// operation resolves the product's category and requires the matching grant
// action; the product inherits its category's access rules.
type Service struct {
	repo *Repository
	gate GrantGate
}

// NewService builds a Service instance.
func NewService(repo *Repository, gate GrantGate) *Service {
	return &Service{repo: repo, gate: gate}
}

// ListVisible returns products in the subject's viewable categories.
func (s *Service) ListVisible(ctx context.Context, subject authz.Subject) ([]Product, error) {
	if subject.Role.IsSuperAdmin() {
		return s.repo.ListAll(ctx)
	}
	ids, err := s.gate.AllowedCategoryIDs(ctx, subject, authz.ActionView)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCategories(ctx, ids)
}

// ListByCategory returns the products of one viewable category.
func (s *Service) ListByCategory(ctx context.Context, subject authz.Subject, categoryID int64) ([]Product, error) {
	if err := s.requireCategory(ctx, subject, categoryID, authz.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListByCategory(ctx, categoryID)
}

// Get fetches one product the subject may view.
func (s *Service) Get(ctx context.Context, subject authz.Subject, id int64) (Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := s.requireCategory(ctx, subject, product.CategoryID, authz.ActionView); err != nil {
		return Product{}, err
	}
	return product, nil
}

// Create inserts a product into a category the subject holds the create
// grant for.
func (s *Service) Create(ctx context.Context, subject authz.Subject, p Product) (Product, error) {
	if err := validateProduct(&p); err != nil {
		return Product{}, err
	}
	if err := s.requireCategory(ctx, subject, p.CategoryID, authz.ActionCreate); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

// Update modifies a product whose category the subject may edit.
func (s *Service) Update(ctx context.Context, subject authz.Subject, p Product) (Product, error) {
	if err := validateProduct(&p); err != nil {
		return Product{}, err
	}
	existing, err := s.repo.Get(ctx, p.ID)
	if err != nil {
		return Product{}, err
	}
	if err := s.requireCategory(ctx, subject, existing.CategoryID, authz.ActionEdit); err != nil {
		return Product{}, err
	}
	p.CategoryID = existing.CategoryID
	return s.repo.Update(ctx, p)
}

// Delete removes a product whose category the subject may delete from.
func (s *Service) Delete(ctx context.Context, subject authz.Subject, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireCategory(ctx, subject, existing.CategoryID, authz.ActionDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireCategory(ctx context.Context, subject authz.Subject, categoryID int64, action authz.Action) error {
	decision, err := s.gate.CanAccessCategory(ctx, subject, authz.ModuleProducts, categoryID, action)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return ErrAccessDenied
	}
	return nil
}

func validateProduct(p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	if p.Name == "" {
		return errors.New("products: name required")
	}
	if p.CategoryID <= 0 {
		return errors.New("products: category required")
	}
	if p.PriceCents < 0 {
		return errors.New("products: price cannot be negative")
	}
	return nil
}

var _ GrantGate = (*grants.Service)(nil)
