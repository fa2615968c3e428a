package sqlstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-ledger/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type countingStateStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	gets    int
	commits int
	err     error
}

func (s *countingStateStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.err != nil {
		return nil, false, s.err
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *countingStateStore) Commit(_ context.Context, changes core.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	for _, write := range changes.Writes {
		if write.Delete {
			delete(s.values, write.Key)
			continue
		}
		s.values[write.Key] = write.Value
	}
	return nil
}

func TestStateCacheKey_EscapesSegments(t *testing.T) {
	key, err := StateCacheKey("0xabc/balance/0x Def")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if !strings.HasPrefix(key, "go-ledger::state::v1::") {
		t.Fatalf("expected versioned prefix, got %q", key)
	}
	if strings.Contains(key, " ") {
		t.Fatalf("expected escaped key, got %q", key)
	}
	if _, err := StateCacheKey("  "); err == nil {
		t.Fatalf("expected error for blank key")
	}
}

func TestCachedStateStore_ServesRepeatedReadsFromCache(t *testing.T) {
	ctx := context.Background()
	base := &countingStateStore{values: map[string][]byte{"k": {0x01}}}
	store, err := NewCachedStateStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	for range 3 {
		value, found, err := store.Get(ctx, "k")
		if err != nil || !found || value[0] != 0x01 {
			t.Fatalf("expected cached value 0x01, got %x/%v (%v)", value, found, err)
		}
	}
	if base.gets != 1 {
		t.Fatalf("expected one base read, got %d", base.gets)
	}

	for range 2 {
		if _, found, err := store.Get(ctx, "missing"); err != nil || found {
			t.Fatalf("expected missing key, got %v (%v)", found, err)
		}
	}
	if base.gets != 2 {
		t.Fatalf("expected misses to be cached too, got %d base reads", base.gets)
	}
}

func TestCachedStateStore_CommitInvalidatesWrittenKeys(t *testing.T) {
	ctx := context.Background()
	base := &countingStateStore{values: map[string][]byte{"k": {0x01}}}
	store, err := NewCachedStateStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	if _, _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	if err := store.Commit(ctx, core.Changeset{Writes: []core.StateWrite{{Key: "k", Value: []byte{0x02}}}}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	value, found, err := store.Get(ctx, "k")
	if err != nil || !found || value[0] != 0x02 {
		t.Fatalf("expected refreshed value 0x02, got %x/%v (%v)", value, found, err)
	}
	if base.commits != 1 || base.gets != 2 {
		t.Fatalf("expected one commit and two base reads, got %d/%d", base.commits, base.gets)
	}

	if err := store.Commit(ctx, core.Changeset{Writes: []core.StateWrite{{Key: "k", Delete: true}}}); err != nil {
		t.Fatalf("commit delete: %v", err)
	}
	if _, found, err := store.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected deleted key to be absent, got %v (%v)", found, err)
	}
}

func TestCachedStateStore_PropagatesBaseErrors(t *testing.T) {
	base := &countingStateStore{values: map[string][]byte{}, err: errors.New("db down")}
	store, err := NewCachedStateStore(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}
	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected base error")
	}

	if _, err := NewCachedStateStore(nil, newTestCacheService(t)); err == nil {
		t.Fatalf("expected error for nil base")
	}
	if _, err := NewCachedStateStore(base, nil); err == nil {
		t.Fatalf("expected error for nil cache")
	}
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
