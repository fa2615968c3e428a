package query

import (
	"context"

	"github.com/goliatone/go-ledger/core"
)

type TokenReader interface {
	Account(ctx context.Context, account core.Account) (core.AccountBalance, error)
	TotalSupply(ctx context.Context) (uint64, error)
}

type RoleReader interface {
	IsInRole(ctx context.Context, resource core.Account, account core.Account, role string) (bool, error)
}

type BridgeReader interface {
	GetPublicAccount(ctx context.Context, internal core.Account) (core.Account, error)
	GetInternalAccount(ctx context.Context, public core.Account) (core.Account, error)
	IsProcessed(ctx context.Context, publicTransferID uint64) (bool, error)
}

type RedeemReader interface {
	State(ctx context.Context, key core.CorrelationKey) (core.TransferState, error)
	GetTransfer(ctx context.Context, index uint64) (core.ReceivedTransfer, error)
}

type RedeemReaderResolver interface {
	RedeemReader(name string) (RedeemReader, error)
}

type CustomerReader interface {
	IDOf(ctx context.Context, account core.Account) (string, error)
	AddressOf(ctx context.Context, customerID string) (core.Account, error)
}

type GetAccountQuery struct {
	reader TokenReader
}

func NewGetAccountQuery(reader TokenReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (core.AccountBalance, error) {
	if q == nil || q.reader == nil {
		return core.AccountBalance{}, queryDependencyError("query: token reader is required")
	}
	return q.reader.Account(ctx, msg.Account)
}

type GetTotalSupplyQuery struct {
	reader TokenReader
}

func NewGetTotalSupplyQuery(reader TokenReader) *GetTotalSupplyQuery {
	return &GetTotalSupplyQuery{reader: reader}
}

func (q *GetTotalSupplyQuery) Query(ctx context.Context, _ GetTotalSupplyMessage) (uint64, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: token reader is required")
	}
	return q.reader.TotalSupply(ctx)
}

type IsInRoleQuery struct {
	reader RoleReader
}

func NewIsInRoleQuery(reader RoleReader) *IsInRoleQuery {
	return &IsInRoleQuery{reader: reader}
}

func (q *IsInRoleQuery) Query(ctx context.Context, msg IsInRoleMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: role reader is required")
	}
	return q.reader.IsInRole(ctx, msg.Resource, msg.Account, msg.Role)
}

type GetPublicAccountQuery struct {
	reader BridgeReader
}

func NewGetPublicAccountQuery(reader BridgeReader) *GetPublicAccountQuery {
	return &GetPublicAccountQuery{reader: reader}
}

func (q *GetPublicAccountQuery) Query(ctx context.Context, msg GetPublicAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.ZeroAccount, queryDependencyError("query: bridge reader is required")
	}
	return q.reader.GetPublicAccount(ctx, msg.Internal)
}

type GetInternalAccountQuery struct {
	reader BridgeReader
}

func NewGetInternalAccountQuery(reader BridgeReader) *GetInternalAccountQuery {
	return &GetInternalAccountQuery{reader: reader}
}

func (q *GetInternalAccountQuery) Query(ctx context.Context, msg GetInternalAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.ZeroAccount, queryDependencyError("query: bridge reader is required")
	}
	return q.reader.GetInternalAccount(ctx, msg.Public)
}

type IsTransferProcessedQuery struct {
	reader BridgeReader
}

func NewIsTransferProcessedQuery(reader BridgeReader) *IsTransferProcessedQuery {
	return &IsTransferProcessedQuery{reader: reader}
}

func (q *IsTransferProcessedQuery) Query(ctx context.Context, msg IsTransferProcessedMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: bridge reader is required")
	}
	return q.reader.IsProcessed(ctx, msg.PublicTransferID)
}

type GetTransferStateQuery struct {
	resolver RedeemReaderResolver
}

func NewGetTransferStateQuery(resolver RedeemReaderResolver) *GetTransferStateQuery {
	return &GetTransferStateQuery{resolver: resolver}
}

func (q *GetTransferStateQuery) Query(ctx context.Context, msg GetTransferStateMessage) (core.TransferState, error) {
	if q == nil || q.resolver == nil {
		return core.TransferStateNone, queryDependencyError("query: redeem resolver is required")
	}
	reader, err := q.resolver.RedeemReader(msg.Gateway)
	if err != nil {
		return core.TransferStateNone, err
	}
	return reader.State(ctx, msg.Key)
}

type GetReceivedTransferQuery struct {
	resolver RedeemReaderResolver
}

func NewGetReceivedTransferQuery(resolver RedeemReaderResolver) *GetReceivedTransferQuery {
	return &GetReceivedTransferQuery{resolver: resolver}
}

func (q *GetReceivedTransferQuery) Query(ctx context.Context, msg GetReceivedTransferMessage) (core.ReceivedTransfer, error) {
	if q == nil || q.resolver == nil {
		return core.ReceivedTransfer{}, queryDependencyError("query: redeem resolver is required")
	}
	reader, err := q.resolver.RedeemReader(msg.Gateway)
	if err != nil {
		return core.ReceivedTransfer{}, err
	}
	return reader.GetTransfer(ctx, msg.Index)
}

type LookupCustomerQuery struct {
	reader CustomerReader
}

func NewLookupCustomerQuery(reader CustomerReader) *LookupCustomerQuery {
	return &LookupCustomerQuery{reader: reader}
}

// Query returns a zero Customer when nothing is registered under the key.
func (q *LookupCustomerQuery) Query(ctx context.Context, msg LookupCustomerMessage) (core.Customer, error) {
	if q == nil || q.reader == nil {
		return core.Customer{}, queryDependencyError("query: customer reader is required")
	}
	if !core.IsZeroAccount(msg.Address) {
		id, err := q.reader.IDOf(ctx, msg.Address)
		if err != nil || id == "" {
			return core.Customer{}, err
		}
		return core.Customer{ID: id, Address: msg.Address}, nil
	}
	address, err := q.reader.AddressOf(ctx, msg.CustomerID)
	if err != nil || core.IsZeroAccount(address) {
		return core.Customer{}, err
	}
	id, err := q.reader.IDOf(ctx, address)
	if err != nil {
		return core.Customer{}, err
	}
	return core.Customer{ID: id, Address: address}, nil
}

type ListEventsQuery struct {
	reader core.EventReader
}

func NewListEventsQuery(reader core.EventReader) *ListEventsQuery {
	return &ListEventsQuery{reader: reader}
}

func (q *ListEventsQuery) Query(ctx context.Context, msg ListEventsMessage) ([]core.LedgerEvent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: event reader is required")
	}
	return q.reader.ListEvents(ctx, msg.Filter)
}
