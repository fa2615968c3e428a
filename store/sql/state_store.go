package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-ledger/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StateStore persists host state in ledger_state and appends the events of
// each commit to the ledger_events outbox inside the same transaction.
type StateStore struct {
	db     *bun.DB
	repo   repository.Repository[*ledgerStateRecord]
	events repository.Repository[*ledgerEventRecord]
}

func NewStateStore(db *bun.DB) (*StateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*ledgerStateRecord](db, ledgerStateHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid state repository wiring: %w", err)
		}
	}
	events := repository.NewRepository[*ledgerEventRecord](db, ledgerEventHandlers())
	if validator, ok := events.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid event repository wiring: %w", err)
		}
	}
	return &StateStore{db: db, repo: repo, events: events}, nil
}

func (s *StateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("sqlstore: state store is not configured")
	}
	if strings.TrimSpace(key) == "" {
		return nil, false, fmt.Errorf("sqlstore: state key is required")
	}
	record := &ledgerStateRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.state_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return record.Value, true, nil
}

func (s *StateStore) Commit(ctx context.Context, changes core.Changeset) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: state store is not configured")
	}
	if len(changes.Writes) == 0 && len(changes.Events) == 0 {
		return nil
	}
	now := time.Now().UTC()
	upserts, deletes := splitWrites(changes, now)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(upserts) > 0 {
			_, err := tx.NewInsert().
				Model(&upserts).
				On("CONFLICT (state_key) DO UPDATE").
				Set("value = EXCLUDED.value").
				Set("tx_id = EXCLUDED.tx_id").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("sqlstore: write state: %w", err)
			}
		}
		if len(deletes) > 0 {
			_, err := tx.NewDelete().
				Model((*ledgerStateRecord)(nil)).
				Where("state_key IN (?)", bun.In(deletes)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("sqlstore: delete state: %w", err)
			}
		}
		if len(changes.Events) == 0 {
			return nil
		}

		seq, err := nextEventSeqTx(ctx, tx)
		if err != nil {
			return err
		}
		for i, event := range changes.Events {
			record := newLedgerEventRecord(event, changes, seq+int64(i), now)
			if _, err := s.events.CreateTx(ctx, tx, record); err != nil {
				return fmt.Errorf("sqlstore: append event %q: %w", event.Name, err)
			}
		}
		return nil
	})
}

// Keys lists the stored state keys sharing prefix, in key order.
func (s *StateStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: state store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if prefix == "" {
				return q
			}
			return q.Where("substr(?TableAlias.state_key, 1, ?) = ?", len(prefix), prefix)
		}),
		repository.OrderBy("state_key ASC"),
	)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.StateKey)
	}
	return keys, nil
}

func splitWrites(changes core.Changeset, now time.Time) ([]ledgerStateRecord, []string) {
	upserts := make([]ledgerStateRecord, 0, len(changes.Writes))
	deletes := make([]string, 0)
	for _, write := range changes.Writes {
		if write.Delete {
			deletes = append(deletes, write.Key)
			continue
		}
		value := write.Value
		if value == nil {
			value = []byte{}
		}
		upserts = append(upserts, ledgerStateRecord{
			StateKey:  write.Key,
			Value:     value,
			TxID:      changes.TxID,
			UpdatedAt: now,
		})
	}
	return upserts, deletes
}

func nextEventSeqTx(ctx context.Context, tx bun.Tx) (int64, error) {
	var maxSeq int64
	if err := tx.NewSelect().
		Model((*ledgerEventRecord)(nil)).
		ColumnExpr("COALESCE(MAX(seq), 0)").
		Scan(ctx, &maxSeq); err != nil {
		return 0, fmt.Errorf("sqlstore: read event sequence: %w", err)
	}
	return maxSeq + 1, nil
}

func newLedgerEventRecord(event core.LedgerEvent, changes core.Changeset, seq int64, now time.Time) *ledgerEventRecord {
	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	txID := strings.TrimSpace(event.TxID)
	if txID == "" {
		txID = changes.TxID
	}
	operation := strings.TrimSpace(event.Operation)
	if operation == "" {
		operation = changes.Operation
	}
	eventID := strings.TrimSpace(event.ID)
	if eventID == "" {
		eventID = uuid.NewString()
	}
	metadata := copyAnyMap(event.Metadata)
	delete(metadata, core.MetadataKeyOutboxAttempts)
	return &ledgerEventRecord{
		ID:         uuid.NewString(),
		Seq:        seq,
		EventID:    eventID,
		TxID:       txID,
		Idx:        event.Index,
		Name:       event.Name,
		Contract:   event.Contract.Hex(),
		Operation:  operation,
		Payload:    copyAnyMap(event.Payload),
		Metadata:   metadata,
		Status:     eventStatusPending,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
