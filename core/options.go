package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type hostBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	stateStore      StateStore
	projectors      ProjectorRegistry
	handlers        []namedEventHandler
	now             func() time.Time
}

type namedEventHandler struct {
	name    string
	handler EventHandler
}

type Option func(*hostBuilder)

func WithLogger(logger Logger) Option {
	return func(b *hostBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *hostBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *hostBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *hostBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *hostBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *hostBuilder) {
		b.optionsResolver = resolver
	}
}

// WithStateStore replaces the in-memory store, e.g. with a SQL backed one.
func WithStateStore(store StateStore) Option {
	return func(b *hostBuilder) {
		b.stateStore = store
	}
}

func WithProjectorRegistry(registry ProjectorRegistry) Option {
	return func(b *hostBuilder) {
		b.projectors = registry
	}
}

// WithEventHandler registers a post-commit handler under name.
func WithEventHandler(name string, handler EventHandler) Option {
	return func(b *hostBuilder) {
		if handler == nil {
			return
		}
		b.handlers = append(b.handlers, namedEventHandler{name: name, handler: handler})
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *hostBuilder) {
		b.now = now
	}
}

func defaultHostBuilder(runtime Config) hostBuilder {
	loggerProvider, logger := glog.Resolve("ledger", nil, nil)
	return hostBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return ledgerErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

// NewStaticConfigLoader serves a fixed raw config map, mostly for tests and
// embedded setups.
func NewStaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	return cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
}

// GoOptionsResolver merges defaults < loaded config < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || cfg.MaxCallDepth > 0 {
		layer["max_call_depth"] = cfg.MaxCallDepth
	}

	reasons := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.FeeReasons.AccountLinking) != "" {
		reasons["account_linking"] = cfg.FeeReasons.AccountLinking
	}
	if includeZero || strings.TrimSpace(cfg.FeeReasons.OutboundTransfer) != "" {
		reasons["outbound_transfer"] = cfg.FeeReasons.OutboundTransfer
	}
	if len(reasons) > 0 {
		layer["fee_reasons"] = reasons
	}

	outbox := map[string]any{}
	if includeZero || cfg.Outbox.BatchSize > 0 {
		outbox["batch_size"] = cfg.Outbox.BatchSize
	}
	if includeZero || cfg.Outbox.MaxAttempts > 0 {
		outbox["max_attempts"] = cfg.Outbox.MaxAttempts
	}
	if includeZero || cfg.Outbox.InitialBackoff > 0 {
		outbox["initial_backoff"] = cfg.Outbox.InitialBackoff
	}
	if includeZero || cfg.Outbox.MaxBackoff > 0 {
		outbox["max_backoff"] = cfg.Outbox.MaxBackoff
	}
	if len(outbox) > 0 {
		layer["outbox"] = outbox
	}
	return layer
}
