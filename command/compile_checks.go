package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
)

var (
	_ gocmd.Commander[AddRoleMessage]                       = (*AddRoleCommand)(nil)
	_ gocmd.Commander[RemoveRoleMessage]                    = (*RemoveRoleCommand)(nil)
	_ gocmd.Commander[RenounceRoleMessage]                  = (*RenounceRoleCommand)(nil)
	_ gocmd.Commander[RenounceOwnershipMessage]             = (*RenounceOwnershipCommand)(nil)
	_ gocmd.Commander[MintMessage]                          = (*MintCommand)(nil)
	_ gocmd.Commander[BurnMessage]                          = (*BurnCommand)(nil)
	_ gocmd.Commander[SendMessage]                          = (*SendCommand)(nil)
	_ gocmd.Commander[SeizeFromMessage]                     = (*SeizeFromCommand)(nil)
	_ gocmd.Commander[CollectFeeMessage]                    = (*CollectFeeCommand)(nil)
	_ gocmd.Commander[IncreaseStakeMessage]                 = (*IncreaseStakeCommand)(nil)
	_ gocmd.Commander[DecreaseStakeMessage]                 = (*DecreaseStakeCommand)(nil)
	_ gocmd.Commander[SetTreasuryAccountMessage]            = (*SetTreasuryAccountCommand)(nil)
	_ gocmd.Commander[SetTransferToPublicNetworkFeeMessage] = (*SetTransferToPublicNetworkFeeCommand)(nil)
	_ gocmd.Commander[LinkPublicAccountMessage]             = (*LinkPublicAccountCommand)(nil)
	_ gocmd.Commander[UnlinkPublicAccountMessage]           = (*UnlinkPublicAccountCommand)(nil)
	_ gocmd.Commander[TransferFromPublicNetworkMessage]     = (*TransferFromPublicNetworkCommand)(nil)
	_ gocmd.Commander[AcceptTransferMessage]                = (*AcceptTransferCommand)(nil)
	_ gocmd.Commander[RejectTransferMessage]                = (*RejectTransferCommand)(nil)
	_ gocmd.Commander[RegisterCustomerMessage]              = (*RegisterCustomerCommand)(nil)
	_ gocmd.Commander[UpdateCustomerMessage]                = (*UpdateCustomerCommand)(nil)

	_ RoleService     = (*core.RoleRegistry)(nil)
	_ TokenService    = (*core.TokenLedger)(nil)
	_ BridgeService   = (*core.BridgeGateway)(nil)
	_ RedeemService   = (*core.RedeemGateway)(nil)
	_ CustomerService = (*core.CustomerRegistry)(nil)
)
