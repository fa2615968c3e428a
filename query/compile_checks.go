package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
)

var (
	_ gocmd.Querier[GetAccountMessage, core.AccountBalance]            = (*GetAccountQuery)(nil)
	_ gocmd.Querier[GetTotalSupplyMessage, uint64]                     = (*GetTotalSupplyQuery)(nil)
	_ gocmd.Querier[IsInRoleMessage, bool]                             = (*IsInRoleQuery)(nil)
	_ gocmd.Querier[GetPublicAccountMessage, core.Account]             = (*GetPublicAccountQuery)(nil)
	_ gocmd.Querier[GetInternalAccountMessage, core.Account]           = (*GetInternalAccountQuery)(nil)
	_ gocmd.Querier[IsTransferProcessedMessage, bool]                  = (*IsTransferProcessedQuery)(nil)
	_ gocmd.Querier[GetTransferStateMessage, core.TransferState]       = (*GetTransferStateQuery)(nil)
	_ gocmd.Querier[GetReceivedTransferMessage, core.ReceivedTransfer] = (*GetReceivedTransferQuery)(nil)
	_ gocmd.Querier[LookupCustomerMessage, core.Customer]              = (*LookupCustomerQuery)(nil)
	_ gocmd.Querier[ListEventsMessage, []core.LedgerEvent]             = (*ListEventsQuery)(nil)

	_ TokenReader    = (*core.TokenLedger)(nil)
	_ RoleReader     = (*core.RoleRegistry)(nil)
	_ BridgeReader   = (*core.BridgeGateway)(nil)
	_ RedeemReader   = (*core.RedeemGateway)(nil)
	_ CustomerReader = (*core.CustomerRegistry)(nil)
)
