package sqlstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-ledger/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const stateCacheKeyPrefix = "go-ledger::state::v1"

type cachedStateEntry struct {
	Value []byte
	Found bool
}

// CachedStateStore serves state reads through a go-repository-cache service
// and invalidates every written key before the base store commits.
type CachedStateStore struct {
	base  core.StateStore
	cache repositorycache.CacheService
}

func NewCachedStateStore(base core.StateStore, cacheService repositorycache.CacheService) (*CachedStateStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base state store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: state cache service is required")
	}
	return &CachedStateStore{base: base, cache: cacheService}, nil
}

// StateCacheKey returns go-ledger::state::v1::<escaped state key>.
func StateCacheKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("sqlstore: state key is required")
	}
	return stateCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (s *CachedStateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, false, fmt.Errorf("sqlstore: cached state store is not configured")
	}
	cacheKey, err := StateCacheKey(key)
	if err != nil {
		return nil, false, err
	}
	entry, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedStateEntry, error) {
		value, found, fetchErr := s.base.Get(ctx, key)
		if fetchErr != nil {
			return cachedStateEntry{}, fetchErr
		}
		return cachedStateEntry{Value: bytes.Clone(value), Found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if !entry.Found {
		return nil, false, nil
	}
	return bytes.Clone(entry.Value), true, nil
}

// Commit drops the cached entries of every written key, then commits. The
// host serializes operations, so nothing refills those entries in between.
func (s *CachedStateStore) Commit(ctx context.Context, changes core.Changeset) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached state store is not configured")
	}
	for _, write := range changes.Writes {
		cacheKey, err := StateCacheKey(write.Key)
		if err != nil {
			return err
		}
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			return err
		}
	}
	return s.base.Commit(ctx, changes)
}
