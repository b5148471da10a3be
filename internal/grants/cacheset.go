package grants

import (
	"context"
	"sync"

	"log/slog"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

// CacheSet keeps one AccessCache per signed-in identity so request paths
// read grant snapshots instead of querying the store on every check. An
// entry is dropped when an administrator rewrites the user's grants and
// replaced when the identity comes back with a different role.
type CacheSet struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[int64]*cacheEntry
}

type cacheEntry struct {
	cache *AccessCache
	role  authz.Role
}

// NewCacheSet builds an empty registry.
func NewCacheSet(fetcher Fetcher, logger *slog.Logger) *CacheSet {
	return &CacheSet{
		fetcher: fetcher,
		logger:  logger,
		entries: make(map[int64]*cacheEntry),
	}
}

// For resolves the subject's cache, loading the snapshot on first use or
// after a role change. A failed load keeps the cache denying and is retried
// on the next call rather than being pinned as an empty snapshot.
func (cs *CacheSet) For(ctx context.Context, subject authz.Subject) (*AccessCache, error) {
	cs.mu.Lock()
	entry, ok := cs.entries[subject.UserID]
	if !ok || entry.role != subject.Role {
		entry = &cacheEntry{cache: NewAccessCache(cs.fetcher, cs.logger), role: subject.Role}
		cs.entries[subject.UserID] = entry
	}
	cache := entry.cache
	loaded := !cache.Loading()
	cs.mu.Unlock()

	if loaded {
		return cache, nil
	}
	sub := subject
	if err := cache.Load(ctx, &sub); err != nil {
		cache.Invalidate()
		return nil, err
	}
	return cache, nil
}

// Invalidate drops the user's snapshot; the next check reloads it.
func (cs *CacheSet) Invalidate(userID int64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if entry, ok := cs.entries[userID]; ok {
		entry.cache.Invalidate()
	}
}
