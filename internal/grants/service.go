package grants

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

// Auditor records grant administration events. Implementations must not
// block the request path.
type Auditor interface {
	GrantsReplaced(ctx context.Context, actorID, targetUserID int64, count int)
}

// CategoryLister enumerates category IDs, used to expand the unrestricted
// super-admin sentinel into a concrete list for API payloads.
type CategoryLister interface {
	CategoryIDs(ctx context.Context) ([]int64, error)
}

// Service orchestrates category grant reads, bulk saves, and the combined
// role + grant access decision.
type Service struct {
	repo       Repository
	resolver   *authz.Resolver
	categories CategoryLister
	auditor    Auditor
	caches     *CacheSet
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, resolver *authz.Resolver, categories CategoryLister, auditor Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		resolver:   resolver,
		categories: categories,
		auditor:    auditor,
		caches:     NewCacheSet(repo, logger),
		validate:   validator.New(),
		logger:     logger,
	}
}

// GrantsForUser returns all active grants for a user.
func (s *Service) GrantsForUser(ctx context.Context, userID int64) ([]CategoryGrant, error) {
	return s.repo.ListForUser(ctx, userID)
}

// GrantsForCategory returns every user's grant on one category.
func (s *Service) GrantsForCategory(ctx context.Context, categoryID int64) ([]CategoryGrant, error) {
	return s.repo.ListForCategory(ctx, categoryID)
}

type replacePayload struct {
	Grants []CategoryGrant `validate:"dive"`
}

// ReplaceGrants overwrites every active grant for targetUserID with the
// supplied set. Duplicate categories in the payload are rejected before the
// write; the save is recorded on the audit trail.
func (s *Service) ReplaceGrants(ctx context.Context, actor authz.Subject, targetUserID int64, incoming []CategoryGrant) error {
	if err := s.validate.Struct(replacePayload{Grants: incoming}); err != nil {
		return fmt.Errorf("grants: invalid payload: %w", err)
	}
	seen := make(map[int64]struct{}, len(incoming))
	for i := range incoming {
		g := &incoming[i]
		if g.CategoryID <= 0 {
			return fmt.Errorf("%w: %d", ErrUnknownCategory, g.CategoryID)
		}
		if _, dup := seen[g.CategoryID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateCategory, g.CategoryID)
		}
		seen[g.CategoryID] = struct{}{}
		g.UserID = targetUserID
	}
	if err := s.repo.ReplaceForUser(ctx, targetUserID, incoming); err != nil {
		return err
	}
	s.caches.Invalidate(targetUserID)
	if s.auditor != nil {
		s.auditor.GrantsReplaced(ctx, actor.UserID, targetUserID, len(incoming))
	}
	s.logger.Info("category grants replaced",
		slog.Int64("actor", actor.UserID),
		slog.Int64("user", targetUserID),
		slog.Int("grants", len(incoming)))
	return nil
}

// AllowedCategoryIDs lists the categories the subject may act on for the
// given action. SUPER_ADMIN expands to every category so the payload stays
// concrete for clients, while in-process checks use the unrestricted
// sentinel in AccessCache. Other roles read their cached snapshot.
func (s *Service) AllowedCategoryIDs(ctx context.Context, subject authz.Subject, action authz.Action) ([]int64, error) {
	if subject.Role.IsSuperAdmin() {
		if s.categories == nil {
			return []int64{}, nil
		}
		return s.categories.CategoryIDs(ctx)
	}
	cache, err := s.caches.For(ctx, subject)
	if err != nil {
		return nil, err
	}
	return cache.AllowedCategoryIDsFor(action), nil
}

// CanAccessCategory is the authoritative server-side decision for one
// (subject, category, action) triple: SUPER_ADMIN bypasses, others need the
// owning module's gate and an explicit grant. A missing grant denies, as
// does a snapshot that failed to load. module is the resource family the
// category is checked for, so per-action widening (products view) applies
// to the same module on list and detail paths.
func (s *Service) CanAccessCategory(ctx context.Context, subject authz.Subject, module authz.ModuleKey, categoryID int64, action authz.Action) (authz.Decision, error) {
	if subject.Role.IsSuperAdmin() {
		return authz.Allow(), nil
	}
	gate := s.resolver.CanAccessModule(subject.Role, module, action)
	if !gate.Allowed {
		return gate, nil
	}
	cache, err := s.caches.For(ctx, subject)
	if err != nil {
		return authz.Decision{}, err
	}
	if cache.CanAccessCategory(categoryID, action) {
		return authz.Allow(), nil
	}
	return authz.Deny(subject.Role, nil), nil
}

// RawAllowedCategoryIDs lists the categories a user's stored grants cover
// for the given action, straight from the store. Administration screens
// inspect a target user this way; no role bypass and no cache apply.
func (s *Service) RawAllowedCategoryIDs(ctx context.Context, userID int64, action authz.Action) ([]int64, error) {
	return s.repo.AllowedCategoryIDs(ctx, userID, action)
}

// RefreshGrants drops the subject's cached snapshot so freshly edited
// grants take effect without re-authentication.
func (s *Service) RefreshGrants(subject authz.Subject) {
	s.caches.Invalidate(subject.UserID)
}
