package sqlstore

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-ledger/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const (
	eventStatusPending    = "pending"
	eventStatusProcessing = "processing"
	eventStatusDelivered  = "delivered"
	eventStatusFailed     = "failed"
)

// EventStore reads committed ledger events and drives their outbox delivery
// state. Rows are written by StateStore.Commit.
type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*ledgerEventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*ledgerEventRecord](db, ledgerEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid event repository wiring: %w", err)
		}
	}
	return &EventStore{db: db, repo: repo}, nil
}

// ListEvents returns committed events in commit order.
func (s *EventStore) ListEvents(ctx context.Context, filter core.EventFilter) ([]core.LedgerEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	selectors := make([]repository.SelectCriteria, 0, 5)
	if !core.IsZeroAccount(filter.Contract) {
		selectors = append(selectors, repository.SelectBy("contract", "=", filter.Contract.Hex()))
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		selectors = append(selectors, repository.SelectBy("name", "=", name))
	}
	if txID := strings.TrimSpace(filter.TxID); txID != "" {
		selectors = append(selectors, repository.SelectBy("tx_id", "=", txID))
	}
	selectors = append(selectors, repository.OrderBy("seq ASC"))
	if filter.Limit > 0 {
		selectors = append(selectors, repository.SelectPaginate(filter.Limit, 0))
	}

	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	events := make([]core.LedgerEvent, 0, len(records))
	for _, record := range records {
		events = append(events, eventRecordToDomain(*record))
	}
	return events, nil
}

// ClaimBatch claims pending events in commit order. limit counts events, but
// a transaction is never split: the last one claimed is taken whole. Nothing
// committed after an event still waiting out its backoff is claimed, so
// projections see transactions in commit order.
func (s *EventStore) ClaimBatch(ctx context.Context, limit int) ([]core.LedgerEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := time.Now().UTC()
	var records []ledgerEventRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH blocked AS (
	SELECT MIN(seq) AS seq
	FROM ledger_events
	WHERE status = ?
	  AND next_attempt_at > ?
),
heads AS (
	SELECT tx_id
	FROM ledger_events
	WHERE status = ?
	  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
	  AND seq < COALESCE((SELECT seq FROM blocked), ?)
	ORDER BY seq ASC
	LIMIT ?
),
claimed AS (
	SELECT id
	FROM ledger_events
	WHERE status = ?
	  AND tx_id IN (SELECT tx_id FROM heads)
)
UPDATE ledger_events
SET status = ?, updated_at = ?
WHERE id IN (SELECT id FROM claimed)
  AND status = ?
RETURNING
	id,
	seq,
	event_id,
	tx_id,
	idx,
	name,
	contract,
	operation,
	payload,
	metadata,
	status,
	attempts,
	next_attempt_at,
	last_error,
	occurred_at,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			eventStatusPending,
			now,
			eventStatusPending,
			now,
			int64(math.MaxInt64),
			limit,
			eventStatusPending,
			eventStatusProcessing,
			now,
			eventStatusPending,
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	events := make([]core.LedgerEvent, 0, len(records))
	for _, record := range sortBySeq(records) {
		events = append(events, eventRecordToDomain(record))
	}
	return events, nil
}

// Release hands claimed events back as pending without counting an attempt.
func (s *EventStore) Release(ctx context.Context, eventIDs []string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	ids := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.NewUpdate().
		Model((*ledgerEventRecord)(nil)).
		Set("status = ?", eventStatusPending).
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id IN (?)", bun.In(ids)).
		Where("status = ?", eventStatusProcessing).
		Exec(ctx)
	return err
}

func (s *EventStore) Ack(ctx context.Context, eventID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("sqlstore: event id is required")
	}
	_, err := s.db.NewUpdate().
		Model((*ledgerEventRecord)(nil)).
		Set("status = ?", eventStatusDelivered).
		Set("last_error = ?", "").
		Set("next_attempt_at = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id = ?", eventID).
		Exec(ctx)
	return err
}

// Retry releases a claimed event back to pending until nextAttemptAt. A zero
// nextAttemptAt marks the event as permanently failed.
func (s *EventStore) Retry(ctx context.Context, eventID string, cause error, nextAttemptAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("sqlstore: event id is required")
	}
	status := eventStatusPending
	var next *time.Time
	if !nextAttemptAt.IsZero() {
		nextValue := nextAttemptAt.UTC()
		next = &nextValue
	} else {
		status = eventStatusFailed
	}

	lastError := ""
	if cause != nil {
		lastError = strings.TrimSpace(cause.Error())
	}
	_, err := s.db.NewUpdate().
		Model((*ledgerEventRecord)(nil)).
		Set("status = ?", status).
		Set("attempts = attempts + 1").
		Set("next_attempt_at = ?", next).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id = ?", eventID).
		Exec(ctx)
	return err
}

// Pending counts events still waiting for delivery, claimed ones included.
func (s *EventStore) Pending(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: event store is not configured")
	}
	return s.db.NewSelect().
		Model((*ledgerEventRecord)(nil)).
		Where("?TableAlias.status IN (?)", bun.In([]string{eventStatusPending, eventStatusProcessing})).
		Count(ctx)
}

func eventRecordToDomain(record ledgerEventRecord) core.LedgerEvent {
	event := core.LedgerEvent{
		ID:         record.EventID,
		Name:       record.Name,
		Contract:   common.HexToAddress(record.Contract),
		Operation:  record.Operation,
		TxID:       record.TxID,
		Index:      record.Idx,
		Payload:    copyAnyMap(record.Payload),
		Metadata:   copyAnyMap(record.Metadata),
		OccurredAt: record.OccurredAt.UTC(),
	}
	event.Metadata[core.MetadataKeyOutboxAttempts] = record.Attempts
	return event
}

// sortBySeq restores commit order; RETURNING rows carry no ordering guarantee.
func sortBySeq(records []ledgerEventRecord) []ledgerEventRecord {
	slices.SortFunc(records, func(a, b ledgerEventRecord) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return records
}
