package query

import (
	"strings"

	"github.com/goliatone/go-ledger/core"
)

const (
	TypeGetAccount          = "ledger.query.token.account"
	TypeGetTotalSupply      = "ledger.query.token.total_supply"
	TypeIsInRole            = "ledger.query.roles.is_in_role"
	TypeGetPublicAccount    = "ledger.query.bridge.public_account"
	TypeGetInternalAccount  = "ledger.query.bridge.internal_account"
	TypeIsTransferProcessed = "ledger.query.bridge.is_processed"
	TypeGetTransferState    = "ledger.query.redeem.state"
	TypeGetReceivedTransfer = "ledger.query.redeem.transfer"
	TypeLookupCustomer      = "ledger.query.customers.lookup"
	TypeListEvents          = "ledger.query.events.list"
)

type GetAccountMessage struct {
	Account core.Account
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	return validateAccount("account", m.Account)
}

type GetTotalSupplyMessage struct{}

func (GetTotalSupplyMessage) Type() string { return TypeGetTotalSupply }

func (GetTotalSupplyMessage) Validate() error { return nil }

type IsInRoleMessage struct {
	Resource core.Account
	Account  core.Account
	Role     string
}

func (IsInRoleMessage) Type() string { return TypeIsInRole }

func (m IsInRoleMessage) Validate() error {
	if err := validateAccount("resource", m.Resource); err != nil {
		return err
	}
	if err := validateAccount("account", m.Account); err != nil {
		return err
	}
	if strings.TrimSpace(m.Role) == "" {
		return queryValidationError("role", "is required")
	}
	return nil
}

type GetPublicAccountMessage struct {
	Internal core.Account
}

func (GetPublicAccountMessage) Type() string { return TypeGetPublicAccount }

func (m GetPublicAccountMessage) Validate() error {
	return validateAccount("internal", m.Internal)
}

type GetInternalAccountMessage struct {
	Public core.Account
}

func (GetInternalAccountMessage) Type() string { return TypeGetInternalAccount }

func (m GetInternalAccountMessage) Validate() error {
	return validateAccount("public", m.Public)
}

type IsTransferProcessedMessage struct {
	PublicTransferID uint64
}

func (IsTransferProcessedMessage) Type() string { return TypeIsTransferProcessed }

func (IsTransferProcessedMessage) Validate() error { return nil }

type GetTransferStateMessage struct {
	Gateway string
	Key     core.CorrelationKey
}

func (GetTransferStateMessage) Type() string { return TypeGetTransferState }

func (m GetTransferStateMessage) Validate() error {
	if err := validateGateway(m.Gateway); err != nil {
		return err
	}
	if m.Key == nil {
		return queryValidationError("key", "is required")
	}
	if err := m.Key.Validate(); err != nil {
		return queryValidationError("key", err.Error())
	}
	return nil
}

type GetReceivedTransferMessage struct {
	Gateway string
	Index   uint64
}

func (GetReceivedTransferMessage) Type() string { return TypeGetReceivedTransfer }

func (m GetReceivedTransferMessage) Validate() error {
	return validateGateway(m.Gateway)
}

// LookupCustomerMessage finds a customer by id or by address; exactly one
// of them must be set.
type LookupCustomerMessage struct {
	CustomerID string
	Address    core.Account
}

func (LookupCustomerMessage) Type() string { return TypeLookupCustomer }

func (m LookupCustomerMessage) Validate() error {
	hasID := strings.TrimSpace(m.CustomerID) != ""
	hasAddress := !core.IsZeroAccount(m.Address)
	if hasID == hasAddress {
		return queryValidationError("customer", "exactly one of customer_id or address is required")
	}
	return nil
}

type ListEventsMessage struct {
	Filter core.EventFilter
}

func (ListEventsMessage) Type() string { return TypeListEvents }

func (m ListEventsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "must be >= 0")
	}
	return nil
}

func validateAccount(field string, account core.Account) error {
	if core.IsZeroAccount(account) {
		return queryValidationError(field, "must not be the zero address")
	}
	return nil
}

func validateGateway(gateway string) error {
	if strings.TrimSpace(gateway) == "" {
		return queryValidationError("gateway", "is required")
	}
	return nil
}
