package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Receipt describes a committed operation.
type Receipt struct {
	ID          string
	Operation   string
	Caller      Account
	Events      []LedgerEvent
	CommittedAt time.Time
}

// Host executes operations one at a time against a StateStore. An operation
// either commits all of its writes and events or none of them.
type Host struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	store           StateStore
	projectors      ProjectorRegistry
	hooks           *HookRegistry
	now             func() time.Time

	mu          sync.Mutex
	contractsMu sync.RWMutex
	contracts   map[Account]Contract
}

type HostDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	StateStore      StateStore
	Projectors      ProjectorRegistry
}

var HookRegistryAddress = DeriveAccount("ledger.hooks")

func NewHost(cfg Config, opts ...Option) (*Host, error) {
	builder := defaultHostBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("ledger", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("ledger"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.stateStore == nil {
		builder.stateStore = NewMemoryStateStore()
	}
	if builder.projectors == nil {
		builder.projectors = NewEventProjectorRegistry()
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}
	for _, entry := range builder.handlers {
		builder.projectors.Register(entry.name, entry.handler)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	host := &Host{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		store:           builder.stateStore,
		projectors:      builder.projectors,
		now:             builder.now,
		contracts:       map[Account]Contract{},
	}
	host.hooks = &HookRegistry{host: host, address: HookRegistryAddress}
	if err := host.Deploy(host.hooks); err != nil {
		return nil, err
	}
	return host, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (h *Host) Config() Config {
	if h == nil {
		return Config{}
	}
	return h.config
}

func (h *Host) Dependencies() HostDependencies {
	if h == nil {
		return HostDependencies{}
	}
	return HostDependencies{
		Logger:          h.logger,
		LoggerProvider:  h.loggerProvider,
		MetricsRecorder: h.metricsRecorder,
		ErrorMapper:     h.errorMapper,
		ConfigProvider:  h.configProvider,
		OptionsResolver: h.optionsResolver,
		StateStore:      h.store,
		Projectors:      h.projectors,
	}
}

func (h *Host) Hooks() *HookRegistry {
	if h == nil {
		return nil
	}
	return h.hooks
}

// Deploy registers a component under its address so other components can
// resolve it at call time.
func (h *Host) Deploy(contract Contract) error {
	if h == nil {
		return fmt.Errorf("core: host is nil")
	}
	if contract == nil {
		return errBadInput("core: contract is required")
	}
	address := contract.Address()
	if IsZeroAccount(address) {
		return errBadInput("core: contract address is the zero address")
	}
	h.contractsMu.Lock()
	defer h.contractsMu.Unlock()
	if _, exists := h.contracts[address]; exists {
		return errInvalidState("core: contract %s is already deployed", address.Hex())
	}
	h.contracts[address] = contract
	return nil
}

func (h *Host) Contract(address Account) (Contract, bool) {
	if h == nil {
		return nil, false
	}
	h.contractsMu.RLock()
	defer h.contractsMu.RUnlock()
	contract, ok := h.contracts[address]
	return contract, ok
}

// Execute runs fn as one atomic operation on behalf of caller.
func (h *Host) Execute(
	ctx context.Context,
	operation string,
	caller Account,
	fn func(*Frame) error,
) (Receipt, error) {
	if h == nil {
		return Receipt{}, fmt.Errorf("core: host is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := h.now()

	h.mu.Lock()
	receipt, err := h.execute(ctx, operation, caller, fn)
	h.mu.Unlock()

	if err != nil {
		err = h.mapError(err)
	}
	h.observeOperation(ctx, startedAt, operation, err, map[string]any{
		"caller":      caller.Hex(),
		"receipt_id":  receipt.ID,
		"event_count": len(receipt.Events),
	})
	if err != nil {
		return Receipt{}, err
	}
	h.publish(ctx, receipt.Events)
	return receipt, nil
}

func (h *Host) execute(
	ctx context.Context,
	operation string,
	caller Account,
	fn func(*Frame) error,
) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if fn == nil {
		return Receipt{}, errBadInput("core: operation body is required")
	}
	if IsZeroAccount(caller) {
		return Receipt{}, errBadInput("core: caller is the zero address")
	}

	txID := uuid.NewString()
	frame := &Frame{
		ctx:       ctx,
		host:      h,
		tx:        newStateTx(h.store),
		caller:    caller,
		operation: normalizeOperation(operation),
		txID:      txID,
	}
	if err := fn(frame); err != nil {
		return Receipt{}, err
	}

	committedAt := h.now()
	for i := range frame.tx.events {
		frame.tx.events[i].ID = uuid.NewString()
		frame.tx.events[i].TxID = txID
		frame.tx.events[i].Index = i
		frame.tx.events[i].Operation = frame.operation
		frame.tx.events[i].OccurredAt = committedAt
	}
	changes := frame.tx.changeset(txID, frame.operation)
	if err := h.store.Commit(ctx, changes); err != nil {
		return Receipt{}, errInternal(err, "core: commit operation state")
	}
	return Receipt{
		ID:          txID,
		Operation:   frame.operation,
		Caller:      caller,
		Events:      changes.Events,
		CommittedAt: committedAt,
	}, nil
}

// View runs fn against the current state and discards any writes.
func (h *Host) View(ctx context.Context, fn func(*Frame) error) error {
	if h == nil {
		return fmt.Errorf("core: host is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	frame := &Frame{
		ctx:       ctx,
		host:      h,
		tx:        newStateTx(h.store),
		operation: "view",
	}
	if err := fn(frame); err != nil {
		return h.mapError(err)
	}
	return nil
}

func (h *Host) mapError(err error) error {
	if err == nil || h.errorMapper == nil {
		return err
	}
	if mapped := h.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (h *Host) publish(ctx context.Context, events []LedgerEvent) {
	if h.projectors == nil || len(events) == 0 {
		return
	}
	handlers := h.projectors.Handlers()
	for _, event := range events {
		for _, handler := range handlers {
			if err := handler.Handle(ctx, cloneEvent(event)); err != nil {
				h.logError(ctx, "event handler failed", map[string]any{
					"event_id":   event.ID,
					"event_name": event.Name,
					"error":      err.Error(),
				})
			}
		}
	}
}

// Frame is the execution context of one call inside an operation.
type Frame struct {
	ctx       context.Context
	host      *Host
	tx        *stateTx
	caller    Account
	depth     int
	operation string
	txID      string
}

func (f *Frame) Context() context.Context {
	return f.ctx
}

// Caller is the immediate caller: the operation signer at the top level, or
// the calling component inside nested calls.
func (f *Frame) Caller() Account {
	return f.caller
}

func (f *Frame) Operation() string {
	return f.operation
}

// call opens a nested frame where self becomes the caller.
func (f *Frame) call(self Account) (*Frame, error) {
	limit := f.host.config.MaxCallDepth
	if limit > 0 && f.depth+1 > limit {
		return nil, errInvalidState("core: call depth limit %d exceeded", limit)
	}
	if err := f.ctx.Err(); err != nil {
		return nil, err
	}
	return &Frame{
		ctx:       f.ctx,
		host:      f.host,
		tx:        f.tx,
		caller:    self,
		depth:     f.depth + 1,
		operation: f.operation,
		txID:      f.txID,
	}, nil
}

func (f *Frame) emit(contract Account, name string, payload map[string]any) {
	f.tx.events = append(f.tx.events, LedgerEvent{
		Name:     name,
		Contract: contract,
		Payload:  copyMap(payload),
		Metadata: map[string]any{"caller": f.caller.Hex()},
	})
}

func (f *Frame) load(key string, out any) (bool, error) {
	raw, ok, err := f.tx.get(f.ctx, key)
	if err != nil {
		return false, errInternal(err, "core: read state")
	}
	if !ok {
		return false, nil
	}
	return true, decodeValue(raw, out)
}

func (f *Frame) store(key string, value any) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}
	f.tx.put(key, encoded)
	return nil
}

func (f *Frame) remove(key string) {
	f.tx.delete(key)
}

func (f *Frame) loadUint(key string) (uint64, error) {
	var value uint64
	if _, err := f.load(key, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func (f *Frame) storeUint(key string, value uint64) error {
	if value == 0 {
		f.remove(key)
		return nil
	}
	return f.store(key, value)
}

func (f *Frame) loadAccount(key string) (Account, error) {
	var value Account
	if _, err := f.load(key, &value); err != nil {
		return ZeroAccount, err
	}
	return value, nil
}

func (f *Frame) storeAccount(key string, value Account) error {
	if IsZeroAccount(value) {
		f.remove(key)
		return nil
	}
	return f.store(key, value)
}

func (f *Frame) loadFlag(key string) (bool, error) {
	var value bool
	if _, err := f.load(key, &value); err != nil {
		return false, err
	}
	return value, nil
}

func (f *Frame) storeFlag(key string, value bool) error {
	if !value {
		f.remove(key)
		return nil
	}
	return f.store(key, value)
}

func (f *Frame) loadString(key string) (string, error) {
	var value string
	if _, err := f.load(key, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (f *Frame) storeString(key string, value string) error {
	if strings.TrimSpace(value) == "" {
		f.remove(key)
		return nil
	}
	return f.store(key, value)
}
