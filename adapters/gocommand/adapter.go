package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	ledger "github.com/goliatone/go-ledger"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Subscriptions holds the dispatcher subscriptions created for a facade.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterFacade registers every ledger command and query handler on the
// registry and subscribes it to the go-command dispatcher. On error the
// subscriptions made so far are released.
func RegisterFacade(adapter *RegistryAdapter, facade *ledger.Facade, runnerOpts ...runner.Option) (Subscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if facade == nil {
		return nil, fmt.Errorf("gocommand: ledger facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	var (
		subs     Subscriptions
		firstErr error
	)
	add := func(subscription commanddispatcher.Subscription, err error) {
		switch {
		case firstErr != nil:
			if subscription != nil {
				subscription.Unsubscribe()
			}
		case err != nil:
			firstErr = err
		default:
			subs = append(subs, subscription)
		}
	}

	add(RegisterAndSubscribe(adapter, commands.AddRole, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.RemoveRole, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.RenounceRole, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.RenounceOwnership, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.Mint, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.Burn, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.Send, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.SeizeFrom, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.CollectFee, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.IncreaseStake, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.DecreaseStake, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.SetTreasuryAccount, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.SetTransferToPublicNetworkFee, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.LinkPublicAccount, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.UnlinkPublicAccount, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.TransferFromPublicNetwork, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.AcceptTransfer, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.RejectTransfer, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.RegisterCustomer, runnerOpts...))
	add(RegisterAndSubscribe(adapter, commands.UpdateCustomer, runnerOpts...))

	add(RegisterAndSubscribeQuery(adapter, queries.GetAccount, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.GetTotalSupply, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.IsInRole, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.GetPublicAccount, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.GetInternalAccount, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.IsTransferProcessed, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.GetTransferState, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.GetReceivedTransfer, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.LookupCustomer, runnerOpts...))
	add(RegisterAndSubscribeQuery(adapter, queries.ListEvents, runnerOpts...))

	if firstErr != nil {
		subs.Unsubscribe()
		return nil, firstErr
	}
	return subs, nil
}
