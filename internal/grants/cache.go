package grants

import (
	"context"
	"slices"
	"sync"

	"log/slog"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

// Fetcher loads the grant rows backing one identity's cache snapshot.
type Fetcher interface {
	ListForUser(ctx context.Context, userID int64) ([]CategoryGrant, error)
}

// AccessCache memoizes, per signed-in identity, the categories that identity
// may act on, so list screens do not re-query the grant store on every
// render. It reads from its last-loaded snapshot and denies while a load is
// outstanding.
//
// A single load routine writes the snapshot; concurrent readers are safe.
// When a newer Load starts before an older one finishes, the older result is
// discarded on arrival (last-identity-wins), so a slow fetch can never
// overwrite a newer identity's permissions.
type AccessCache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu           sync.RWMutex
	gen          uint64
	loaded       bool
	subject      *authz.Subject
	unrestricted bool
	grants       map[int64]CategoryGrant
}

// NewAccessCache builds an empty cache. It denies everything until the
// first Load completes.
func NewAccessCache(fetcher Fetcher, logger *slog.Logger) *AccessCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessCache{fetcher: fetcher, logger: logger}
}

// Load rebuilds the snapshot for the given identity. For SUPER_ADMIN the
// snapshot is the unrestricted sentinel, never an enumerated list, so newly
// created categories are included without a refresh. For other roles it
// fetches the identity's grants; a fetch failure resolves to an empty
// snapshot, never to broader access, and the error is returned for the
// caller to surface as a soft warning.
//
// A nil identity (signed out) resolves to an empty snapshot.
func (c *AccessCache) Load(ctx context.Context, subject *authz.Subject) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loaded = false
	c.subject = subject
	c.unrestricted = false
	c.grants = nil
	c.mu.Unlock()

	if subject == nil {
		c.apply(gen, false, nil)
		return nil
	}
	if subject.Role.IsSuperAdmin() {
		c.apply(gen, true, nil)
		return nil
	}

	rows, err := c.fetcher.ListForUser(ctx, subject.UserID)
	if err != nil {
		if c.apply(gen, false, nil) {
			c.logger.Warn("grant fetch failed, cache resolved to empty",
				slog.Int64("user", subject.UserID), slog.Any("error", err))
			return err
		}
		// A newer load superseded this one; the failure is moot.
		return nil
	}

	byCategory := make(map[int64]CategoryGrant, len(rows))
	for _, g := range rows {
		byCategory[g.CategoryID] = g
	}
	c.apply(gen, false, byCategory)
	return nil
}

// Reload re-fetches grants for the current identity, for administrator
// grant edits to take effect without re-authentication.
func (c *AccessCache) Reload(ctx context.Context) error {
	c.mu.RLock()
	subject := c.subject
	c.mu.RUnlock()
	return c.Load(ctx, subject)
}

// Invalidate drops the snapshot without fetching; every check denies until
// the next Load.
func (c *AccessCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.loaded = false
	c.unrestricted = false
	c.grants = nil
	c.mu.Unlock()
}

// apply installs a snapshot if gen is still current. It reports whether the
// snapshot was installed; a stale write is dropped.
func (c *AccessCache) apply(gen uint64, unrestricted bool, grants map[int64]CategoryGrant) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.loaded = true
	c.unrestricted = unrestricted
	c.grants = grants
	return true
}

// Loading reports whether a load is outstanding. Checks deny while loading;
// callers needing a spinner query this separately.
func (c *AccessCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded
}

// CanAccessCategory reports whether the cached identity may perform action
// on the category. False while a load is in flight.
func (c *AccessCache) CanAccessCategory(categoryID int64, action authz.Action) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return false
	}
	if c.unrestricted {
		return true
	}
	grant, ok := c.grants[categoryID]
	if !ok {
		return false
	}
	return grant.Allows(action)
}

// HasAnyAccess reports whether the identity can act on at least one
// category, letting list screens short-circuit to an empty state.
func (c *AccessCache) HasAnyAccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return false
	}
	return c.unrestricted || len(c.grants) > 0
}

// Unrestricted reports whether the snapshot is the super-admin sentinel.
func (c *AccessCache) Unrestricted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded && c.unrestricted
}

// AllowedCategoryIDs returns the IDs viewable under the snapshot, in
// ascending order. Nil is never returned; the unrestricted sentinel yields
// an empty list and must be checked via Unrestricted.
func (c *AccessCache) AllowedCategoryIDs() []int64 {
	return c.AllowedCategoryIDsFor(authz.ActionView)
}

// AllowedCategoryIDsFor lists the IDs whose grant covers action, in
// ascending order, with the same nil and sentinel conventions as
// AllowedCategoryIDs.
func (c *AccessCache) AllowedCategoryIDsFor(action authz.Action) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, 0, len(c.grants))
	if !c.loaded || c.unrestricted {
		return ids
	}
	for id, grant := range c.grants {
		if grant.Allows(action) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
