package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// StateStore is the persistent key-value state the host executes against.
// Commit must apply every write and record every event, or none of them.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Commit(ctx context.Context, changes Changeset) error
}

// Contract is a component deployed on a host under a fixed address.
type Contract interface {
	Address() Account
}

// ValueReceiver is notified when the ledger credits an account whose
// registered recipient implementation points at it. Returning an error
// aborts the whole operation, including the credit.
type ValueReceiver interface {
	Contract
	OnValueReceived(frame *Frame, transfer ValueTransfer) error
}

type ValueTransfer struct {
	Operator     Account
	From         Account
	To           Account
	Amount       uint64
	Data         []byte
	OperatorData []byte
}

type EventHandler interface {
	Handle(ctx context.Context, event LedgerEvent) error
}

type EventHandlerFunc func(ctx context.Context, event LedgerEvent) error

func (fn EventHandlerFunc) Handle(ctx context.Context, event LedgerEvent) error {
	return fn(ctx, event)
}

type ProjectorRegistry interface {
	Register(name string, handler EventHandler)
	Handlers() []EventHandler
}

type EventReader interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]LedgerEvent, error)
}

// OutboxStore hands out committed events in commit order. ClaimBatch should
// return whole transactions; the dispatcher settles each transaction as a unit.
type OutboxStore interface {
	ClaimBatch(ctx context.Context, limit int) ([]LedgerEvent, error)
	Ack(ctx context.Context, eventID string) error
	Retry(ctx context.Context, eventID string, cause error, nextAttemptAt time.Time) error
}

// OutboxReleaser returns claimed events to the queue untouched, without
// counting a delivery attempt.
type OutboxReleaser interface {
	Release(ctx context.Context, eventIDs []string) error
}

type DispatchStats struct {
	Claimed      int
	Transactions int
	Delivered    int
	Retried      int
	Failed       int
	Released     int
	Duplicates   int
}

type EventDispatcher interface {
	DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error)
}
