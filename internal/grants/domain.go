package grants

import (
	"errors"
	"time"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

// CategoryGrant is an explicit per-user, per-category CRUD override layered
// on top of role-level access for the categories/products resource family.
// Grants are sparse: no row for a (user, category) pair means no access,
// not inherit.
type CategoryGrant struct {
	UserID     int64     `json:"user_id"`
	CategoryID int64     `json:"category_id"`
	CanView    bool      `json:"can_view"`
	CanCreate  bool      `json:"can_create"`
	CanEdit    bool      `json:"can_edit"`
	CanDelete  bool      `json:"can_delete"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Allows reports whether the grant covers the given action. Actions outside
// the CRUD set are never grantable per category.
func (g CategoryGrant) Allows(action authz.Action) bool {
	switch action {
	case authz.ActionView:
		return g.CanView
	case authz.ActionCreate:
		return g.CanCreate
	case authz.ActionEdit:
		return g.CanEdit
	case authz.ActionDelete:
		return g.CanDelete
	}
	return false
}

// Empty reports whether the grant permits nothing; empty grants are not
// persisted.
func (g CategoryGrant) Empty() bool {
	return !g.CanView && !g.CanCreate && !g.CanEdit && !g.CanDelete
}

var (
	// ErrUnknownCategory indicates a grant referencing a category that
	// does not exist.
	ErrUnknownCategory = errors.New("grants: unknown category")
	// ErrDuplicateCategory indicates two grants for the same category in
	// one save payload.
	ErrDuplicateCategory = errors.New("grants: duplicate category in payload")
)
