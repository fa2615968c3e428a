package ledger

import "github.com/goliatone/go-ledger/core"

type Config = core.Config

type Option = core.Option

type Host = core.Host

type HostDependencies = core.HostDependencies

type Account = core.Account

type Receipt = core.Receipt

type LedgerEvent = core.LedgerEvent

type EventFilter = core.EventFilter

type StateStore = core.StateStore

type RoleRegistry = core.RoleRegistry
type TokenLedger = core.TokenLedger
type BridgeGateway = core.BridgeGateway
type RedeemGateway = core.RedeemGateway
type CustomerRegistry = core.CustomerRegistry

type CorrelationKey = core.CorrelationKey
type OpaqueKey = core.OpaqueKey
type CampaignKey = core.CampaignKey
type HospitalityKey = core.HospitalityKey

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorMapper       = core.WithErrorMapper
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithStateStore        = core.WithStateStore
	WithProjectorRegistry = core.WithProjectorRegistry
	WithEventHandler      = core.WithEventHandler
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewHost(cfg Config, opts ...Option) (*Host, error) {
	return core.NewHost(cfg, opts...)
}
