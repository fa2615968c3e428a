package core

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
)

type StateWrite struct {
	Key    string
	Value  []byte
	Delete bool
}

// Changeset is everything a successful operation produced.
type Changeset struct {
	TxID      string
	Operation string
	Writes    []StateWrite
	Events    []LedgerEvent
}

type MemoryStateStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	events []LedgerEvent
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{values: map[string][]byte{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, fmt.Errorf("core: memory state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

func (s *MemoryStateStore) Commit(_ context.Context, changes Changeset) error {
	if s == nil {
		return fmt.Errorf("core: memory state store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string][]byte{}
	}
	for _, write := range changes.Writes {
		if write.Delete {
			delete(s.values, write.Key)
			continue
		}
		s.values[write.Key] = bytes.Clone(write.Value)
	}
	for _, event := range changes.Events {
		s.events = append(s.events, cloneEvent(event))
	}
	return nil
}

// Events returns every committed event in commit order.
func (s *MemoryStateStore) Events() []LedgerEvent {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LedgerEvent, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, cloneEvent(event))
	}
	return out
}

func (s *MemoryStateStore) ListEvents(_ context.Context, filter EventFilter) ([]LedgerEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LedgerEvent, 0)
	for _, event := range s.events {
		if !filter.Matches(event) {
			continue
		}
		out = append(out, cloneEvent(event))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStateStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// stateTx buffers the writes and events of one operation over a base store.
// Reads observe buffered writes first.
type stateTx struct {
	base   StateStore
	writes map[string]*StateWrite
	order  []string
	events []LedgerEvent
}

func newStateTx(base StateStore) *stateTx {
	return &stateTx{base: base, writes: map[string]*StateWrite{}}
}

func (tx *stateTx) get(ctx context.Context, key string) ([]byte, bool, error) {
	if write, ok := tx.writes[key]; ok {
		if write.Delete {
			return nil, false, nil
		}
		return write.Value, true, nil
	}
	return tx.base.Get(ctx, key)
}

func (tx *stateTx) put(key string, value []byte) {
	tx.record(StateWrite{Key: key, Value: bytes.Clone(value)})
}

func (tx *stateTx) delete(key string) {
	tx.record(StateWrite{Key: key, Delete: true})
}

func (tx *stateTx) record(write StateWrite) {
	if existing, ok := tx.writes[write.Key]; ok {
		*existing = write
		return
	}
	tx.writes[write.Key] = &write
	tx.order = append(tx.order, write.Key)
}

func (tx *stateTx) changeset(txID string, operation string) Changeset {
	writes := make([]StateWrite, 0, len(tx.order))
	for _, key := range tx.order {
		writes = append(writes, *tx.writes[key])
	}
	events := make([]LedgerEvent, 0, len(tx.events))
	for _, event := range tx.events {
		events = append(events, cloneEvent(event))
	}
	return Changeset{TxID: txID, Operation: operation, Writes: writes, Events: events}
}

func encodeValue(value any) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return nil, errInternal(err, "core: encode state value")
	}
	return encoded, nil
}

func decodeValue(raw []byte, out any) error {
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return errInternal(err, "core: decode state value")
	}
	return nil
}
