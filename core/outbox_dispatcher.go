package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

const MetadataKeyOutboxAttempts = "_outbox_attempts"

type OutboxDispatcherConfig struct {
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultOutboxDispatcherConfig() OutboxDispatcherConfig {
	return DefaultConfig().OutboxDispatcherConfig()
}

// OutboxDispatcher delivers committed events that a durable StateStore left
// in its outbox. Events are settled per ledger transaction: a transaction is
// acked once all of its events reached every projector, or retried as a
// whole. Projectors must therefore tolerate seeing an event id again.
//
// Delivery stops at the first failing transaction of a sweep so later
// transactions are never projected ahead of it. When the store implements
// OutboxReleaser the skipped transactions go back untouched; otherwise they
// are delivered in the same sweep.
type OutboxDispatcher struct {
	store    OutboxStore
	registry ProjectorRegistry
	config   OutboxDispatcherConfig
	now      func() time.Time
}

// outboxTx is the slice of a claimed batch that one Host.Execute committed.
type outboxTx struct {
	id     string
	events []LedgerEvent
}

func (tx outboxTx) eventIDs() []string {
	ids := make([]string, 0, len(tx.events))
	for _, event := range tx.events {
		ids = append(ids, event.ID)
	}
	return ids
}

// attempts is the highest delivery count recorded on any event of the
// transaction; events retried together normally agree.
func (tx outboxTx) attempts() int {
	highest := 0
	for _, event := range tx.events {
		highest = max(highest, outboxAttempts(event))
	}
	return highest
}

func NewOutboxDispatcher(
	store OutboxStore,
	registry ProjectorRegistry,
	config OutboxDispatcherConfig,
) (*OutboxDispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("core: outbox store is required")
	}
	defaults := DefaultOutboxDispatcherConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	return &OutboxDispatcher{
		store:    store,
		registry: registry,
		config:   config,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (d *OutboxDispatcher) DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error) {
	if d == nil || d.store == nil {
		return DispatchStats{}, fmt.Errorf("core: outbox dispatcher is not configured")
	}
	limit := batchSize
	if limit <= 0 {
		limit = d.config.BatchSize
	}
	events, err := d.store.ClaimBatch(ctx, limit)
	if err != nil {
		return DispatchStats{}, err
	}

	stats := DispatchStats{Claimed: len(events)}
	txs, duplicates := groupByTransaction(events)
	stats.Duplicates = len(duplicates)
	stats.Transactions = len(txs)

	var dispatchErr error
	for _, id := range duplicates {
		if err := d.store.Ack(ctx, id); err != nil {
			dispatchErr = errors.Join(dispatchErr, err)
		}
	}

	releaser, canRelease := d.store.(OutboxReleaser)
	for i, tx := range txs {
		deliverErr := d.deliver(ctx, tx)
		if deliverErr == nil {
			if err := d.ackAll(ctx, tx); err != nil {
				dispatchErr = errors.Join(dispatchErr, err)
				continue
			}
			stats.Delivered += len(tx.events)
			continue
		}

		dispatchErr = errors.Join(dispatchErr, deliverErr)
		failed, err := d.retryAll(ctx, tx, deliverErr)
		if err != nil {
			dispatchErr = errors.Join(dispatchErr, err)
		}
		if failed {
			stats.Failed += len(tx.events)
		} else {
			stats.Retried += len(tx.events)
		}

		if !canRelease {
			continue
		}
		var held []string
		for _, rest := range txs[i+1:] {
			held = append(held, rest.eventIDs()...)
		}
		if len(held) > 0 {
			if err := releaser.Release(ctx, held); err != nil {
				dispatchErr = errors.Join(dispatchErr, err)
			} else {
				stats.Released = len(held)
			}
		}
		break
	}

	return stats, dispatchErr
}

// deliver runs the transaction's events through every projector in index
// order and stops at the first failure.
func (d *OutboxDispatcher) deliver(ctx context.Context, tx outboxTx) error {
	if d.registry == nil {
		return nil
	}
	handlers := d.registry.Handlers()
	for _, event := range tx.events {
		for i, handler := range handlers {
			if handler == nil {
				continue
			}
			if err := handler.Handle(ctx, event); err != nil {
				return fmt.Errorf("core: event projector %d failed for %s event %q (tx %s #%d): %w",
					i, event.Name, event.ID, tx.id, event.Index, err)
			}
		}
	}
	return nil
}

func (d *OutboxDispatcher) ackAll(ctx context.Context, tx outboxTx) error {
	var ackErr error
	for _, event := range tx.events {
		if err := d.store.Ack(ctx, event.ID); err != nil {
			ackErr = errors.Join(ackErr, err)
		}
	}
	return ackErr
}

// retryAll reschedules every event of tx at the same instant, or marks them
// all failed once MaxAttempts is reached. It reports whether tx failed.
func (d *OutboxDispatcher) retryAll(ctx context.Context, tx outboxTx, cause error) (bool, error) {
	attempt := tx.attempts() + 1
	var next time.Time
	failed := attempt >= d.config.MaxAttempts
	if !failed {
		next = d.now().Add(d.nextBackoffDelay(attempt))
	}
	var retryErr error
	for _, event := range tx.events {
		if err := d.store.Retry(ctx, event.ID, cause, next); err != nil {
			retryErr = errors.Join(retryErr, err)
		}
	}
	return failed, retryErr
}

func (d *OutboxDispatcher) nextBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := d.config.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay <= 0 || delay >= d.config.MaxBackoff {
			return d.config.MaxBackoff
		}
	}
	return min(delay, d.config.MaxBackoff)
}

// groupByTransaction splits a claimed batch into transactions in the order
// their first event was claimed, sorting each by event index. Events without
// a TxID stand alone. Repeated event ids are returned separately.
func groupByTransaction(events []LedgerEvent) ([]outboxTx, []string) {
	seen := make(map[string]struct{}, len(events))
	position := map[string]int{}
	var (
		txs        []outboxTx
		duplicates []string
	)
	for _, event := range events {
		event.ID = strings.TrimSpace(event.ID)
		if _, ok := seen[event.ID]; ok {
			duplicates = append(duplicates, event.ID)
			continue
		}
		seen[event.ID] = struct{}{}

		txID := strings.TrimSpace(event.TxID)
		if txID == "" {
			txs = append(txs, outboxTx{id: event.ID, events: []LedgerEvent{event}})
			continue
		}
		if i, ok := position[txID]; ok {
			txs[i].events = append(txs[i].events, event)
			continue
		}
		position[txID] = len(txs)
		txs = append(txs, outboxTx{id: txID, events: []LedgerEvent{event}})
	}
	for _, tx := range txs {
		slices.SortStableFunc(tx.events, func(a, b LedgerEvent) int {
			return cmp.Compare(a.Index, b.Index)
		})
	}
	return txs, duplicates
}

func outboxAttempts(event LedgerEvent) int {
	raw, ok := event.Metadata[MetadataKeyOutboxAttempts]
	if !ok {
		return 0
	}
	var attempts int
	switch typed := raw.(type) {
	case int:
		attempts = typed
	case int64:
		attempts = int(typed)
	case float64:
		attempts = int(typed)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0
		}
		attempts = parsed
	}
	return max(attempts, 0)
}

var _ EventDispatcher = (*OutboxDispatcher)(nil)
