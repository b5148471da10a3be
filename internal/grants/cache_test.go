package grants

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

type mockFetcher struct {
	mu     sync.Mutex
	grants map[int64][]CategoryGrant
	err    error
	calls  int
	// started receives one signal per fetch; gate, when set, blocks each
	// fetch until released.
	started chan struct{}
	gate    chan struct{}
}

func (m *mockFetcher) ListForUser(ctx context.Context, userID int64) ([]CategoryGrant, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.grants[userID], nil
}

func (m *mockFetcher) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func sellerGrants() map[int64][]CategoryGrant {
	return map[int64][]CategoryGrant{
		42: {
			{UserID: 42, CategoryID: 1, CanView: true, CanCreate: true, CanEdit: true},
			{UserID: 42, CategoryID: 3, CanView: true},
		},
	}
}

func TestAccessCacheDeniesBeforeLoad(t *testing.T) {
	cache := NewAccessCache(&mockFetcher{}, nil)

	assert.True(t, cache.Loading())
	assert.False(t, cache.CanAccessCategory(1, authz.ActionView))
	assert.False(t, cache.HasAnyAccess())
	assert.Empty(t, cache.AllowedCategoryIDs())
}

func TestAccessCacheLoadsGrants(t *testing.T) {
	cache := NewAccessCache(&mockFetcher{grants: sellerGrants()}, nil)

	err := cache.Load(context.Background(), &authz.Subject{UserID: 42, Role: authz.RoleSeller})
	require.NoError(t, err)

	assert.False(t, cache.Loading())
	assert.True(t, cache.CanAccessCategory(1, authz.ActionView))
	assert.True(t, cache.CanAccessCategory(1, authz.ActionEdit))
	assert.False(t, cache.CanAccessCategory(1, authz.ActionDelete))
	assert.True(t, cache.CanAccessCategory(3, authz.ActionView))
	assert.False(t, cache.CanAccessCategory(3, authz.ActionCreate))
	// No row means no access.
	assert.False(t, cache.CanAccessCategory(2, authz.ActionView))
	assert.True(t, cache.HasAnyAccess())
	assert.Equal(t, []int64{1, 3}, cache.AllowedCategoryIDs())
}

func TestAccessCacheLoadIsIdempotent(t *testing.T) {
	cache := NewAccessCache(&mockFetcher{grants: sellerGrants()}, nil)
	subject := &authz.Subject{UserID: 42, Role: authz.RoleSeller}

	require.NoError(t, cache.Load(context.Background(), subject))
	first := cache.AllowedCategoryIDs()
	require.NoError(t, cache.Load(context.Background(), subject))
	assert.Equal(t, first, cache.AllowedCategoryIDs())
}

func TestAccessCacheSuperAdminUnrestricted(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("must not be called")}
	cache := NewAccessCache(fetcher, nil)

	err := cache.Load(context.Background(), &authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin})
	require.NoError(t, err)

	assert.True(t, cache.Unrestricted())
	assert.True(t, cache.CanAccessCategory(999, authz.ActionDelete))
	assert.True(t, cache.HasAnyAccess())
	// The sentinel is never an enumerated list.
	assert.Empty(t, cache.AllowedCategoryIDs())
}

func TestAccessCacheNilSubjectIsEmpty(t *testing.T) {
	cache := NewAccessCache(&mockFetcher{grants: sellerGrants()}, nil)

	require.NoError(t, cache.Load(context.Background(), nil))
	assert.False(t, cache.Loading())
	assert.False(t, cache.HasAnyAccess())
	assert.False(t, cache.CanAccessCategory(1, authz.ActionView))
}

func TestAccessCacheFetchFailureResolvesEmpty(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("store down")}
	cache := NewAccessCache(fetcher, nil)

	err := cache.Load(context.Background(), &authz.Subject{UserID: 42, Role: authz.RoleSeller})
	require.Error(t, err)

	// Failure never widens access.
	assert.False(t, cache.Loading())
	assert.False(t, cache.Unrestricted())
	assert.False(t, cache.HasAnyAccess())
	assert.False(t, cache.CanAccessCategory(1, authz.ActionView))
}

func TestAccessCacheLastIdentityWins(t *testing.T) {
	fetcher := &mockFetcher{grants: sellerGrants(), started: make(chan struct{}, 1), gate: make(chan struct{})}
	cache := NewAccessCache(fetcher, nil)

	slow := make(chan error, 1)
	go func() {
		slow <- cache.Load(context.Background(), &authz.Subject{UserID: 42, Role: authz.RoleSeller})
	}()
	<-fetcher.started

	// A newer identity loads while the first fetch is still in flight.
	require.NoError(t, cache.Load(context.Background(), &authz.Subject{UserID: 7, Role: authz.RoleSuperAdmin}))
	require.True(t, cache.Unrestricted())

	// Release the stale fetch; its result must be discarded.
	close(fetcher.gate)
	require.NoError(t, <-slow)

	assert.True(t, cache.Unrestricted())
	assert.True(t, cache.CanAccessCategory(999, authz.ActionView))
	assert.Empty(t, cache.AllowedCategoryIDs())
}

func TestAccessCacheStaleFailureIsSilent(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("store down"), started: make(chan struct{}, 1), gate: make(chan struct{})}
	cache := NewAccessCache(fetcher, nil)

	slow := make(chan error, 1)
	go func() {
		slow <- cache.Load(context.Background(), &authz.Subject{UserID: 42, Role: authz.RoleSeller})
	}()
	<-fetcher.started

	require.NoError(t, cache.Load(context.Background(), &authz.Subject{UserID: 7, Role: authz.RoleSuperAdmin}))

	close(fetcher.gate)
	// The superseded failure is moot and must not surface.
	require.NoError(t, <-slow)
	assert.True(t, cache.Unrestricted())
}

func TestAccessCacheInvalidate(t *testing.T) {
	cache := NewAccessCache(&mockFetcher{grants: sellerGrants()}, nil)
	subject := &authz.Subject{UserID: 42, Role: authz.RoleSeller}

	require.NoError(t, cache.Load(context.Background(), subject))
	require.True(t, cache.CanAccessCategory(1, authz.ActionView))

	cache.Invalidate()
	assert.True(t, cache.Loading())
	assert.False(t, cache.CanAccessCategory(1, authz.ActionView))

	// Reload restores the same identity's snapshot.
	require.NoError(t, cache.Reload(context.Background()))
	assert.True(t, cache.CanAccessCategory(1, authz.ActionView))
}

func TestCategoryGrantAllows(t *testing.T) {
	grant := CategoryGrant{CanView: true, CanEdit: true}

	assert.True(t, grant.Allows(authz.ActionView))
	assert.True(t, grant.Allows(authz.ActionEdit))
	assert.False(t, grant.Allows(authz.ActionCreate))
	assert.False(t, grant.Allows(authz.ActionDelete))
	// Approve is never grantable per category.
	assert.False(t, CategoryGrant{CanView: true, CanCreate: true, CanEdit: true, CanDelete: true}.Allows(authz.ActionApprove))
}
