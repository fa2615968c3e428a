package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultAccountLinkingFeeReason   = "account linking fee"
	DefaultOutboundTransferFeeReason = "outbound transfer fee"
)

type FeeReasonConfig struct {
	AccountLinking   string `koanf:"account_linking" mapstructure:"account_linking"`
	OutboundTransfer string `koanf:"outbound_transfer" mapstructure:"outbound_transfer"`
}

type OutboxConfig struct {
	BatchSize      int           `koanf:"batch_size" mapstructure:"batch_size"`
	MaxAttempts    int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff" mapstructure:"max_backoff"`
}

type Config struct {
	ServiceName  string          `koanf:"service_name" mapstructure:"service_name"`
	MaxCallDepth int             `koanf:"max_call_depth" mapstructure:"max_call_depth"`
	FeeReasons   FeeReasonConfig `koanf:"fee_reasons" mapstructure:"fee_reasons"`
	Outbox       OutboxConfig    `koanf:"outbox" mapstructure:"outbox"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:  "ledger",
		MaxCallDepth: 8,
		FeeReasons: FeeReasonConfig{
			AccountLinking:   DefaultAccountLinkingFeeReason,
			OutboundTransfer: DefaultOutboundTransferFeeReason,
		},
		Outbox: OutboxConfig{
			BatchSize:      50,
			MaxAttempts:    5,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     5 * time.Minute,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("core: max_call_depth must be positive")
	}
	if strings.TrimSpace(c.FeeReasons.AccountLinking) == "" {
		return fmt.Errorf("core: fee_reasons.account_linking is required")
	}
	if strings.TrimSpace(c.FeeReasons.OutboundTransfer) == "" {
		return fmt.Errorf("core: fee_reasons.outbound_transfer is required")
	}
	if c.Outbox.BatchSize < 0 || c.Outbox.MaxAttempts < 0 {
		return fmt.Errorf("core: outbox limits must not be negative")
	}
	return nil
}

// OutboxDispatcherConfig maps the outbox section onto dispatcher settings.
func (c Config) OutboxDispatcherConfig() OutboxDispatcherConfig {
	return OutboxDispatcherConfig{
		BatchSize:      c.Outbox.BatchSize,
		MaxAttempts:    c.Outbox.MaxAttempts,
		InitialBackoff: c.Outbox.InitialBackoff,
		MaxBackoff:     c.Outbox.MaxBackoff,
	}
}
