package grants

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

func TestCacheSetLoadsOncePerIdentity(t *testing.T) {
	fetcher := &mockFetcher{grants: sellerGrants()}
	set := NewCacheSet(fetcher, nil)
	seller := authz.Subject{UserID: 42, Role: authz.RoleSeller}

	first, err := set.For(context.Background(), seller)
	require.NoError(t, err)
	assert.True(t, first.CanAccessCategory(1, authz.ActionView))

	second, err := set.For(context.Background(), seller)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.fetchCount())
}

func TestCacheSetSeparatesIdentities(t *testing.T) {
	fetcher := &mockFetcher{grants: sellerGrants()}
	set := NewCacheSet(fetcher, nil)

	sellerCache, err := set.For(context.Background(), authz.Subject{UserID: 42, Role: authz.RoleSeller})
	require.NoError(t, err)
	otherCache, err := set.For(context.Background(), authz.Subject{UserID: 7, Role: authz.RoleSeller})
	require.NoError(t, err)

	assert.True(t, sellerCache.CanAccessCategory(1, authz.ActionView))
	assert.False(t, otherCache.CanAccessCategory(1, authz.ActionView))
	assert.Equal(t, 2, fetcher.fetchCount())
}

func TestCacheSetRoleChangeReloads(t *testing.T) {
	fetcher := &mockFetcher{grants: sellerGrants()}
	set := NewCacheSet(fetcher, nil)

	asSeller, err := set.For(context.Background(), authz.Subject{UserID: 42, Role: authz.RoleSeller})
	require.NoError(t, err)
	require.False(t, asSeller.Unrestricted())

	// Same user comes back promoted; the old snapshot must not survive.
	asAdmin, err := set.For(context.Background(), authz.Subject{UserID: 42, Role: authz.RoleSuperAdmin})
	require.NoError(t, err)
	assert.NotSame(t, asSeller, asAdmin)
	assert.True(t, asAdmin.Unrestricted())
}

func TestCacheSetInvalidateForcesRefetch(t *testing.T) {
	fetcher := &mockFetcher{grants: sellerGrants()}
	set := NewCacheSet(fetcher, nil)
	seller := authz.Subject{UserID: 42, Role: authz.RoleSeller}

	cache, err := set.For(context.Background(), seller)
	require.NoError(t, err)
	require.True(t, cache.CanAccessCategory(1, authz.ActionView))

	fetcher.mu.Lock()
	fetcher.grants[42] = nil
	fetcher.mu.Unlock()
	set.Invalidate(42)

	cache, err = set.For(context.Background(), seller)
	require.NoError(t, err)
	assert.False(t, cache.CanAccessCategory(1, authz.ActionView))
	assert.Equal(t, 2, fetcher.fetchCount())
}

func TestCacheSetFetchFailureRetries(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("store down")}
	set := NewCacheSet(fetcher, nil)
	seller := authz.Subject{UserID: 42, Role: authz.RoleSeller}

	_, err := set.For(context.Background(), seller)
	require.Error(t, err)

	// The failure is not pinned; recovery on the next call.
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.grants = sellerGrants()
	fetcher.mu.Unlock()

	cache, err := set.For(context.Background(), seller)
	require.NoError(t, err)
	assert.True(t, cache.CanAccessCategory(1, authz.ActionView))
}
