package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingCommitStore struct {
	*MemoryStateStore
}

func (s failingCommitStore) Commit(context.Context, Changeset) error {
	return errors.New("disk full")
}

func TestHost_RejectsZeroCaller(t *testing.T) {
	host, err := NewHost(DefaultConfig())
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	_, err = host.Execute(context.Background(), "noop", ZeroAccount, func(*Frame) error { return nil })
	expectCode(t, err, LedgerErrorBadInput, "zero caller")

	_, err = host.Execute(context.Background(), "noop", ownerAccount, nil)
	expectCode(t, err, LedgerErrorBadInput, "nil body")
}

func TestHost_FailedOperationLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()
	var delivered int
	host, err := NewHost(DefaultConfig(),
		WithStateStore(store),
		WithEventHandler("count", EventHandlerFunc(func(context.Context, LedgerEvent) error {
			delivered++
			return nil
		})),
	)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}

	_, err = host.Execute(ctx, "partial", ownerAccount, func(f *Frame) error {
		if err := f.storeUint("test/value", 7); err != nil {
			return err
		}
		f.emit(ownerAccount, "Written", map[string]any{"value": 7})
		return errInvalidState("test: abort after write")
	})
	expectCode(t, err, LedgerErrorInvalidState, "aborted operation")
	if store.Len() != 0 {
		t.Fatalf("expected no committed state, got %d keys", store.Len())
	}
	if len(store.Events()) != 0 || delivered != 0 {
		t.Fatalf("expected no committed or delivered events")
	}
}

func TestHost_CommitStampsReceiptAndEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewMemoryStateStore()
	host, err := NewHost(DefaultConfig(), WithStateStore(store), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new host: %v", err)
	}

	receipt := mustExecute(t, "write")(host.Execute(ctx, "Test Write", ownerAccount, func(f *Frame) error {
		if err := f.storeString("test/name", "alpha"); err != nil {
			return err
		}
		f.emit(ownerAccount, "First", nil)
		f.emit(ownerAccount, "Second", map[string]any{"n": 2})
		return nil
	}))
	if receipt.ID == "" || receipt.Operation != "test_write" || !receipt.CommittedAt.Equal(now) {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(receipt.Events) != 2 {
		t.Fatalf("expected two events, got %d", len(receipt.Events))
	}
	for i, event := range receipt.Events {
		if event.ID == "" || event.TxID != receipt.ID || event.Index != i || event.Operation != "test_write" {
			t.Fatalf("unexpected event stamp at %d: %+v", i, event)
		}
		if event.Metadata["caller"] != ownerAccount.Hex() {
			t.Fatalf("expected caller metadata, got %#v", event.Metadata)
		}
	}

	var name string
	if err := host.View(ctx, func(f *Frame) error {
		var err error
		name, err = f.loadString("test/name")
		return err
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if name != "alpha" {
		t.Fatalf("expected committed value alpha, got %q", name)
	}
}

func TestHost_ViewDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()
	host, err := NewHost(DefaultConfig(), WithStateStore(store))
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	if err := host.View(ctx, func(f *Frame) error {
		f.emit(ownerAccount, "Ignored", nil)
		return f.storeUint("test/value", 1)
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if store.Len() != 0 || len(store.Events()) != 0 {
		t.Fatalf("expected view writes to be discarded")
	}
}

func TestHost_CommitFailureIsInternal(t *testing.T) {
	var delivered int
	host, err := NewHost(DefaultConfig(),
		WithStateStore(failingCommitStore{MemoryStateStore: NewMemoryStateStore()}),
		WithEventHandler("count", EventHandlerFunc(func(context.Context, LedgerEvent) error {
			delivered++
			return nil
		})),
	)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	_, err = host.Execute(context.Background(), "write", ownerAccount, func(f *Frame) error {
		f.emit(ownerAccount, "Written", nil)
		return f.storeUint("test/value", 1)
	})
	expectCode(t, err, LedgerErrorInternal, "commit failure")
	if delivered != 0 {
		t.Fatalf("expected no delivery after failed commit")
	}
}

func TestHost_CallDepthLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCallDepth = 2
	host, err := NewHost(cfg)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	var depth int
	_, err = host.Execute(context.Background(), "nest", ownerAccount, func(f *Frame) error {
		current := f
		for {
			next, err := current.call(ownerAccount)
			if err != nil {
				return err
			}
			depth++
			current = next
		}
	})
	expectCode(t, err, LedgerErrorInvalidState, "nested calls")
	if depth != 2 {
		t.Fatalf("expected two nested frames before the limit, got %d", depth)
	}
}

func TestHost_CanceledContext(t *testing.T) {
	host, err := NewHost(DefaultConfig())
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = host.Execute(ctx, "noop", ownerAccount, func(*Frame) error { return nil })
	if err == nil {
		t.Fatalf("expected canceled context to abort the operation")
	}
}

func TestHost_DeployRejectsDuplicates(t *testing.T) {
	host, err := NewHost(DefaultConfig())
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	if _, err := NewRoleRegistry(host, rolesAddress); err != nil {
		t.Fatalf("deploy roles: %v", err)
	}
	_, err = NewRoleRegistry(host, rolesAddress)
	expectCode(t, err, LedgerErrorInvalidState, "duplicate deploy")
	_, err = NewRoleRegistry(host, ZeroAccount)
	expectCode(t, err, LedgerErrorBadInput, "zero address deploy")
	if _, ok := host.Contract(HookRegistryAddress); !ok {
		t.Fatalf("expected hook registry to be deployed")
	}
}
