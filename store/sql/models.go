package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type ledgerStateRecord struct {
	bun.BaseModel `bun:"table:ledger_state,alias:ls"`

	StateKey  string    `bun:"state_key,pk"`
	Value     []byte    `bun:"value,notnull"`
	TxID      string    `bun:"tx_id,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type ledgerEventRecord struct {
	bun.BaseModel `bun:"table:ledger_events,alias:le"`

	ID            string         `bun:"id,pk"`
	Seq           int64          `bun:"seq,notnull"`
	EventID       string         `bun:"event_id,notnull"`
	TxID          string         `bun:"tx_id,notnull"`
	Idx           int            `bun:"idx,notnull"`
	Name          string         `bun:"name,notnull"`
	Contract      string         `bun:"contract,notnull"`
	Operation     string         `bun:"operation,notnull"`
	Payload       map[string]any `bun:"payload,type:jsonb,notnull"`
	Metadata      map[string]any `bun:"metadata,type:jsonb,notnull"`
	Status        string         `bun:"status,notnull"`
	Attempts      int            `bun:"attempts,notnull"`
	NextAttemptAt *time.Time     `bun:"next_attempt_at,nullzero"`
	LastError     string         `bun:"last_error"`
	OccurredAt    time.Time      `bun:"occurred_at,nullzero,notnull"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
