package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
)

type RoleService interface {
	AddRole(ctx context.Context, caller core.Account, resource core.Account, account core.Account, role string) (core.Receipt, error)
	RemoveRole(ctx context.Context, caller core.Account, resource core.Account, account core.Account, role string) (core.Receipt, error)
	RenounceRole(ctx context.Context, caller core.Account, resource core.Account, role string) (core.Receipt, error)
	RenounceOwnership(ctx context.Context, caller core.Account) (core.Receipt, error)
}

type TokenService interface {
	Mint(ctx context.Context, caller core.Account, to core.Account, amount uint64) (core.Receipt, error)
	Burn(ctx context.Context, caller core.Account, amount uint64, data []byte) (core.Receipt, error)
	Send(ctx context.Context, caller core.Account, to core.Account, amount uint64, data []byte) (core.Receipt, error)
	SeizeFrom(ctx context.Context, caller core.Account, account core.Account, amount uint64, reason string) (core.Receipt, error)
	CollectFee(ctx context.Context, caller core.Account, from core.Account, to core.Account, amount uint64, reason string) (core.Receipt, error)
	IncreaseStake(ctx context.Context, caller core.Account, account core.Account, amount uint64) (core.Receipt, error)
	DecreaseStake(ctx context.Context, caller core.Account, account core.Account, released uint64, burnt uint64) (core.Receipt, error)
}

type BridgeService interface {
	SetTreasuryAccount(ctx context.Context, caller core.Account, account core.Account) (core.Receipt, error)
	SetTransferToPublicNetworkFee(ctx context.Context, caller core.Account, amount uint64) (core.Receipt, error)
	LinkPublicAccount(ctx context.Context, caller core.Account, internal core.Account, public core.Account, fee uint64) (core.Receipt, error)
	UnlinkPublicAccount(ctx context.Context, caller core.Account, internal core.Account) (core.Receipt, error)
	TransferFromPublicNetwork(
		ctx context.Context,
		caller core.Account,
		public core.Account,
		internal core.Account,
		publicTransferID uint64,
		amount uint64,
	) (core.Receipt, error)
}

type RedeemService interface {
	AcceptTransfer(ctx context.Context, caller core.Account, key core.CorrelationKey) (core.Receipt, error)
	RejectTransfer(ctx context.Context, caller core.Account, key core.CorrelationKey) (core.Receipt, error)
}

// RedeemResolver finds the settlement gateway for a variant name.
type RedeemResolver interface {
	RedeemGateway(name string) (RedeemService, error)
}

type CustomerService interface {
	RegisterCustomer(ctx context.Context, caller core.Account, customerID string, address core.Account) (core.Receipt, error)
	UpdateCustomer(ctx context.Context, caller core.Account, customerID string, address core.Account) (core.Receipt, error)
}

type AddRoleCommand struct {
	service RoleService
}

func NewAddRoleCommand(service RoleService) *AddRoleCommand {
	return &AddRoleCommand{service: service}
}

func (c *AddRoleCommand) Execute(ctx context.Context, msg AddRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: role service is required")
	}
	return storeReceipt(ctx)(c.service.AddRole(ctx, msg.Caller, msg.Resource, msg.Account, msg.Role))
}

type RemoveRoleCommand struct {
	service RoleService
}

func NewRemoveRoleCommand(service RoleService) *RemoveRoleCommand {
	return &RemoveRoleCommand{service: service}
}

func (c *RemoveRoleCommand) Execute(ctx context.Context, msg RemoveRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: role service is required")
	}
	return storeReceipt(ctx)(c.service.RemoveRole(ctx, msg.Caller, msg.Resource, msg.Account, msg.Role))
}

type RenounceRoleCommand struct {
	service RoleService
}

func NewRenounceRoleCommand(service RoleService) *RenounceRoleCommand {
	return &RenounceRoleCommand{service: service}
}

func (c *RenounceRoleCommand) Execute(ctx context.Context, msg RenounceRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: role service is required")
	}
	return storeReceipt(ctx)(c.service.RenounceRole(ctx, msg.Caller, msg.Resource, msg.Role))
}

type RenounceOwnershipCommand struct {
	service RoleService
}

func NewRenounceOwnershipCommand(service RoleService) *RenounceOwnershipCommand {
	return &RenounceOwnershipCommand{service: service}
}

func (c *RenounceOwnershipCommand) Execute(ctx context.Context, msg RenounceOwnershipMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: role service is required")
	}
	return storeReceipt(ctx)(c.service.RenounceOwnership(ctx, msg.Caller))
}

type MintCommand struct {
	service TokenService
}

func NewMintCommand(service TokenService) *MintCommand {
	return &MintCommand{service: service}
}

func (c *MintCommand) Execute(ctx context.Context, msg MintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.Mint(ctx, msg.Caller, msg.To, msg.Amount))
}

type BurnCommand struct {
	service TokenService
}

func NewBurnCommand(service TokenService) *BurnCommand {
	return &BurnCommand{service: service}
}

func (c *BurnCommand) Execute(ctx context.Context, msg BurnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.Burn(ctx, msg.Caller, msg.Amount, msg.Data))
}

type SendCommand struct {
	service TokenService
}

func NewSendCommand(service TokenService) *SendCommand {
	return &SendCommand{service: service}
}

func (c *SendCommand) Execute(ctx context.Context, msg SendMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.Send(ctx, msg.Caller, msg.To, msg.Amount, msg.Data))
}

type SeizeFromCommand struct {
	service TokenService
}

func NewSeizeFromCommand(service TokenService) *SeizeFromCommand {
	return &SeizeFromCommand{service: service}
}

func (c *SeizeFromCommand) Execute(ctx context.Context, msg SeizeFromMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.SeizeFrom(ctx, msg.Caller, msg.Account, msg.Amount, msg.Reason))
}

type CollectFeeCommand struct {
	service TokenService
}

func NewCollectFeeCommand(service TokenService) *CollectFeeCommand {
	return &CollectFeeCommand{service: service}
}

func (c *CollectFeeCommand) Execute(ctx context.Context, msg CollectFeeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.CollectFee(ctx, msg.Caller, msg.From, msg.To, msg.Amount, msg.Reason))
}

type IncreaseStakeCommand struct {
	service TokenService
}

func NewIncreaseStakeCommand(service TokenService) *IncreaseStakeCommand {
	return &IncreaseStakeCommand{service: service}
}

func (c *IncreaseStakeCommand) Execute(ctx context.Context, msg IncreaseStakeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.IncreaseStake(ctx, msg.Caller, msg.Account, msg.Amount))
}

type DecreaseStakeCommand struct {
	service TokenService
}

func NewDecreaseStakeCommand(service TokenService) *DecreaseStakeCommand {
	return &DecreaseStakeCommand{service: service}
}

func (c *DecreaseStakeCommand) Execute(ctx context.Context, msg DecreaseStakeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return storeReceipt(ctx)(c.service.DecreaseStake(ctx, msg.Caller, msg.Account, msg.Released, msg.Burnt))
}

type SetTreasuryAccountCommand struct {
	service BridgeService
}

func NewSetTreasuryAccountCommand(service BridgeService) *SetTreasuryAccountCommand {
	return &SetTreasuryAccountCommand{service: service}
}

func (c *SetTreasuryAccountCommand) Execute(ctx context.Context, msg SetTreasuryAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: bridge service is required")
	}
	return storeReceipt(ctx)(c.service.SetTreasuryAccount(ctx, msg.Caller, msg.Account))
}

type SetTransferToPublicNetworkFeeCommand struct {
	service BridgeService
}

func NewSetTransferToPublicNetworkFeeCommand(service BridgeService) *SetTransferToPublicNetworkFeeCommand {
	return &SetTransferToPublicNetworkFeeCommand{service: service}
}

func (c *SetTransferToPublicNetworkFeeCommand) Execute(ctx context.Context, msg SetTransferToPublicNetworkFeeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: bridge service is required")
	}
	return storeReceipt(ctx)(c.service.SetTransferToPublicNetworkFee(ctx, msg.Caller, msg.Amount))
}

type LinkPublicAccountCommand struct {
	service BridgeService
}

func NewLinkPublicAccountCommand(service BridgeService) *LinkPublicAccountCommand {
	return &LinkPublicAccountCommand{service: service}
}

func (c *LinkPublicAccountCommand) Execute(ctx context.Context, msg LinkPublicAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: bridge service is required")
	}
	return storeReceipt(ctx)(c.service.LinkPublicAccount(ctx, msg.Caller, msg.Internal, msg.Public, msg.Fee))
}

type UnlinkPublicAccountCommand struct {
	service BridgeService
}

func NewUnlinkPublicAccountCommand(service BridgeService) *UnlinkPublicAccountCommand {
	return &UnlinkPublicAccountCommand{service: service}
}

func (c *UnlinkPublicAccountCommand) Execute(ctx context.Context, msg UnlinkPublicAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: bridge service is required")
	}
	return storeReceipt(ctx)(c.service.UnlinkPublicAccount(ctx, msg.Caller, msg.Internal))
}

type TransferFromPublicNetworkCommand struct {
	service BridgeService
}

func NewTransferFromPublicNetworkCommand(service BridgeService) *TransferFromPublicNetworkCommand {
	return &TransferFromPublicNetworkCommand{service: service}
}

func (c *TransferFromPublicNetworkCommand) Execute(ctx context.Context, msg TransferFromPublicNetworkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: bridge service is required")
	}
	return storeReceipt(ctx)(c.service.TransferFromPublicNetwork(
		ctx,
		msg.Caller,
		msg.Public,
		msg.Internal,
		msg.PublicTransferID,
		msg.Amount,
	))
}

type AcceptTransferCommand struct {
	resolver RedeemResolver
}

func NewAcceptTransferCommand(resolver RedeemResolver) *AcceptTransferCommand {
	return &AcceptTransferCommand{resolver: resolver}
}

func (c *AcceptTransferCommand) Execute(ctx context.Context, msg AcceptTransferMessage) error {
	if c == nil || c.resolver == nil {
		return commandDependencyError("command: redeem resolver is required")
	}
	gateway, err := c.resolver.RedeemGateway(msg.Gateway)
	if err != nil {
		return err
	}
	return storeReceipt(ctx)(gateway.AcceptTransfer(ctx, msg.Caller, msg.Key))
}

type RejectTransferCommand struct {
	resolver RedeemResolver
}

func NewRejectTransferCommand(resolver RedeemResolver) *RejectTransferCommand {
	return &RejectTransferCommand{resolver: resolver}
}

func (c *RejectTransferCommand) Execute(ctx context.Context, msg RejectTransferMessage) error {
	if c == nil || c.resolver == nil {
		return commandDependencyError("command: redeem resolver is required")
	}
	gateway, err := c.resolver.RedeemGateway(msg.Gateway)
	if err != nil {
		return err
	}
	return storeReceipt(ctx)(gateway.RejectTransfer(ctx, msg.Caller, msg.Key))
}

type RegisterCustomerCommand struct {
	service CustomerService
}

func NewRegisterCustomerCommand(service CustomerService) *RegisterCustomerCommand {
	return &RegisterCustomerCommand{service: service}
}

func (c *RegisterCustomerCommand) Execute(ctx context.Context, msg RegisterCustomerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: customer service is required")
	}
	return storeReceipt(ctx)(c.service.RegisterCustomer(ctx, msg.Caller, msg.CustomerID, msg.Address))
}

type UpdateCustomerCommand struct {
	service CustomerService
}

func NewUpdateCustomerCommand(service CustomerService) *UpdateCustomerCommand {
	return &UpdateCustomerCommand{service: service}
}

func (c *UpdateCustomerCommand) Execute(ctx context.Context, msg UpdateCustomerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: customer service is required")
	}
	return storeReceipt(ctx)(c.service.UpdateCustomer(ctx, msg.Caller, msg.CustomerID, msg.Address))
}

// storeReceipt hands a successful receipt to the go-command result collector
// carried by ctx, if any.
func storeReceipt(ctx context.Context) func(core.Receipt, error) error {
	return func(receipt core.Receipt, err error) error {
		if err != nil {
			return err
		}
		storeResult(ctx, receipt)
		return nil
	}
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
