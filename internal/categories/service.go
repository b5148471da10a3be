package categories

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/grants"
)

// ErrAccessDenied marks a category operation the caller's grants do not
// cover. It is an expected outcome, mapped to 403 at the edge.
var ErrAccessDenied = errors.New("categories: access denied")

// GrantGate answers per-category access questions; the grants service
// implements it.
type GrantGate interface {
	CanAccessCategory(ctx context.Context, subject authz.Subject, module authz.ModuleKey, categoryID int64, action authz.Action) (authz.Decision, error)
	AllowedCategoryIDs(ctx context.Context, subject authz.Subject, action authz.Action) ([]int64, error)
}

// Service applies grant gating on top of category persistence: every read
// is filtered to granted categories and every mutation requires the
// matching grant action.
type Service struct {
	repo *Repository
	gate GrantGate
}

// NewService builds a Service instance.
func NewService(repo *Repository, gate GrantGate) *Service {
	return &Service{repo: repo, gate: gate}
}

// ListVisible returns the categories the subject may view. SUPER_ADMIN sees
// everything; other roles see only explicitly granted categories, which may
// be an empty list.
func (s *Service) ListVisible(ctx context.Context, subject authz.Subject) ([]Category, error) {
	if subject.Role.IsSuperAdmin() {
		return s.repo.List(ctx)
	}
	ids, err := s.gate.AllowedCategoryIDs(ctx, subject, authz.ActionView)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByIDs(ctx, ids)
}

// Get fetches one category the subject may view.
func (s *Service) Get(ctx context.Context, subject authz.Subject, id int64) (Category, error) {
	if err := s.require(ctx, subject, id, authz.ActionView); err != nil {
		return Category{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a category. Creation is module-gated only: a brand new
// category cannot have grant rows yet.
func (s *Service) Create(ctx context.Context, subject authz.Subject, name, description string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, errors.New("categories: name required")
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(description))
}

// Update modifies a category the subject holds the edit grant for.
func (s *Service) Update(ctx context.Context, subject authz.Subject, id int64, name, description string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, errors.New("categories: name required")
	}
	if err := s.require(ctx, subject, id, authz.ActionEdit); err != nil {
		return Category{}, err
	}
	return s.repo.Update(ctx, id, name, strings.TrimSpace(description))
}

// Delete removes a category the subject holds the delete grant for.
func (s *Service) Delete(ctx context.Context, subject authz.Subject, id int64) error {
	if err := s.require(ctx, subject, id, authz.ActionDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) require(ctx context.Context, subject authz.Subject, id int64, action authz.Action) error {
	decision, err := s.gate.CanAccessCategory(ctx, subject, authz.ModuleCategories, id, action)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return ErrAccessDenied
	}
	return nil
}

var _ GrantGate = (*grants.Service)(nil)
