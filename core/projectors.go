package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const DefaultEventLogName = "event-log"

type EventProjectorRegistry struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
	order    []string
}

func NewEventProjectorRegistry() *EventProjectorRegistry {
	return &EventProjectorRegistry{
		handlers: make(map[string]EventHandler),
		order:    make([]string, 0),
	}
}

func (r *EventProjectorRegistry) Register(name string, handler EventHandler) {
	if r == nil || handler == nil {
		return
	}
	key := strings.TrimSpace(name)
	if key == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string]EventHandler)
	}
	if _, exists := r.handlers[key]; !exists {
		r.order = append(r.order, key)
		sort.Strings(r.order)
	}
	r.handlers[key] = handler
}

func (r *EventProjectorRegistry) Handlers() []EventHandler {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventHandler, 0, len(r.order))
	for _, key := range r.order {
		handler := r.handlers[key]
		if handler != nil {
			out = append(out, handler)
		}
	}
	return out
}

// EventLog keeps every delivered event in memory, deduplicated by event id.
// It serves as a projector and as an EventReader for in-process hosts.
type EventLog struct {
	mu     sync.RWMutex
	events []LedgerEvent
	seen   map[string]struct{}
}

func NewEventLog() *EventLog {
	return &EventLog{seen: map[string]struct{}{}}
}

func (l *EventLog) Handle(_ context.Context, event LedgerEvent) error {
	if l == nil {
		return fmt.Errorf("core: event log is nil")
	}
	id := strings.TrimSpace(event.ID)
	if id == "" {
		return fmt.Errorf("core: event id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		return nil
	}
	l.seen[id] = struct{}{}
	l.events = append(l.events, cloneEvent(event))
	return nil
}

func (l *EventLog) ListEvents(_ context.Context, filter EventFilter) ([]LedgerEvent, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LedgerEvent, 0)
	for _, event := range l.events {
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

var (
	_ ProjectorRegistry = (*EventProjectorRegistry)(nil)
	_ EventHandler      = (*EventLog)(nil)
	_ EventReader       = (*EventLog)(nil)
)
