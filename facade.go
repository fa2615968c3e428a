package ledger

import (
	"fmt"

	ledgercommand "github.com/goliatone/go-ledger/command"
	"github.com/goliatone/go-ledger/core"
	ledgerquery "github.com/goliatone/go-ledger/query"
)

type Commands struct {
	AddRole                       *ledgercommand.AddRoleCommand
	RemoveRole                    *ledgercommand.RemoveRoleCommand
	RenounceRole                  *ledgercommand.RenounceRoleCommand
	RenounceOwnership             *ledgercommand.RenounceOwnershipCommand
	Mint                          *ledgercommand.MintCommand
	Burn                          *ledgercommand.BurnCommand
	Send                          *ledgercommand.SendCommand
	SeizeFrom                     *ledgercommand.SeizeFromCommand
	CollectFee                    *ledgercommand.CollectFeeCommand
	IncreaseStake                 *ledgercommand.IncreaseStakeCommand
	DecreaseStake                 *ledgercommand.DecreaseStakeCommand
	SetTreasuryAccount            *ledgercommand.SetTreasuryAccountCommand
	SetTransferToPublicNetworkFee *ledgercommand.SetTransferToPublicNetworkFeeCommand
	LinkPublicAccount             *ledgercommand.LinkPublicAccountCommand
	UnlinkPublicAccount           *ledgercommand.UnlinkPublicAccountCommand
	TransferFromPublicNetwork     *ledgercommand.TransferFromPublicNetworkCommand
	AcceptTransfer                *ledgercommand.AcceptTransferCommand
	RejectTransfer                *ledgercommand.RejectTransferCommand
	RegisterCustomer              *ledgercommand.RegisterCustomerCommand
	UpdateCustomer                *ledgercommand.UpdateCustomerCommand
}

type Queries struct {
	GetAccount          *ledgerquery.GetAccountQuery
	GetTotalSupply      *ledgerquery.GetTotalSupplyQuery
	IsInRole            *ledgerquery.IsInRoleQuery
	GetPublicAccount    *ledgerquery.GetPublicAccountQuery
	GetInternalAccount  *ledgerquery.GetInternalAccountQuery
	IsTransferProcessed *ledgerquery.IsTransferProcessedQuery
	GetTransferState    *ledgerquery.GetTransferStateQuery
	GetReceivedTransfer *ledgerquery.GetReceivedTransferQuery
	LookupCustomer      *ledgerquery.LookupCustomerQuery
	ListEvents          *ledgerquery.ListEventsQuery
}

// Facade binds the go-command handlers to a deployed suite.
type Facade struct {
	suite    *Suite
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	eventReader core.EventReader
}

// WithEventReader sets the reader behind ListEvents, e.g. a SQL event store.
func WithEventReader(reader core.EventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.eventReader = reader
	}
}

func NewFacade(suite *Suite, opts ...FacadeOption) (*Facade, error) {
	if suite == nil {
		return nil, fmt.Errorf("ledger: deployed suite is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.eventReader
	if reader == nil {
		reader = resolveEventReader(suite)
	}

	facade := &Facade{suite: suite}
	facade.commands = Commands{
		AddRole:                       ledgercommand.NewAddRoleCommand(suite.Roles),
		RemoveRole:                    ledgercommand.NewRemoveRoleCommand(suite.Roles),
		RenounceRole:                  ledgercommand.NewRenounceRoleCommand(suite.Roles),
		RenounceOwnership:             ledgercommand.NewRenounceOwnershipCommand(suite.Roles),
		Mint:                          ledgercommand.NewMintCommand(suite.Token),
		Burn:                          ledgercommand.NewBurnCommand(suite.Token),
		Send:                          ledgercommand.NewSendCommand(suite.Token),
		SeizeFrom:                     ledgercommand.NewSeizeFromCommand(suite.Token),
		CollectFee:                    ledgercommand.NewCollectFeeCommand(suite.Token),
		IncreaseStake:                 ledgercommand.NewIncreaseStakeCommand(suite.Token),
		DecreaseStake:                 ledgercommand.NewDecreaseStakeCommand(suite.Token),
		SetTreasuryAccount:            ledgercommand.NewSetTreasuryAccountCommand(suite.Bridge),
		SetTransferToPublicNetworkFee: ledgercommand.NewSetTransferToPublicNetworkFeeCommand(suite.Bridge),
		LinkPublicAccount:             ledgercommand.NewLinkPublicAccountCommand(suite.Bridge),
		UnlinkPublicAccount:           ledgercommand.NewUnlinkPublicAccountCommand(suite.Bridge),
		TransferFromPublicNetwork:     ledgercommand.NewTransferFromPublicNetworkCommand(suite.Bridge),
		AcceptTransfer:                ledgercommand.NewAcceptTransferCommand(suite),
		RejectTransfer:                ledgercommand.NewRejectTransferCommand(suite),
		RegisterCustomer:              ledgercommand.NewRegisterCustomerCommand(suite.Customers),
		UpdateCustomer:                ledgercommand.NewUpdateCustomerCommand(suite.Customers),
	}
	facade.queries = Queries{
		GetAccount:          ledgerquery.NewGetAccountQuery(suite.Token),
		GetTotalSupply:      ledgerquery.NewGetTotalSupplyQuery(suite.Token),
		IsInRole:            ledgerquery.NewIsInRoleQuery(suite.Roles),
		GetPublicAccount:    ledgerquery.NewGetPublicAccountQuery(suite.Bridge),
		GetInternalAccount:  ledgerquery.NewGetInternalAccountQuery(suite.Bridge),
		IsTransferProcessed: ledgerquery.NewIsTransferProcessedQuery(suite.Bridge),
		GetTransferState:    ledgerquery.NewGetTransferStateQuery(suite),
		GetReceivedTransfer: ledgerquery.NewGetReceivedTransferQuery(suite),
		LookupCustomer:      ledgerquery.NewLookupCustomerQuery(suite.Customers),
		ListEvents:          ledgerquery.NewListEventsQuery(reader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Suite() *Suite {
	if f == nil {
		return nil
	}
	return f.suite
}

// resolveEventReader falls back to the host state store, then to the first
// registered projector that can list events.
func resolveEventReader(suite *Suite) core.EventReader {
	if suite == nil || suite.Host == nil {
		return nil
	}
	deps := suite.Host.Dependencies()
	if reader, ok := deps.StateStore.(core.EventReader); ok {
		return reader
	}
	if deps.Projectors == nil {
		return nil
	}
	for _, handler := range deps.Projectors.Handlers() {
		if reader, ok := handler.(core.EventReader); ok {
			return reader
		}
	}
	return nil
}
