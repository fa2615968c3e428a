package command

import (
	"strings"

	"github.com/goliatone/go-ledger/core"
)

const (
	TypeAddRole                       = "ledger.command.roles.add"
	TypeRemoveRole                    = "ledger.command.roles.remove"
	TypeRenounceRole                  = "ledger.command.roles.renounce"
	TypeRenounceOwnership             = "ledger.command.roles.renounce_ownership"
	TypeMint                          = "ledger.command.token.mint"
	TypeBurn                          = "ledger.command.token.burn"
	TypeSend                          = "ledger.command.token.send"
	TypeSeizeFrom                     = "ledger.command.token.seize_from"
	TypeCollectFee                    = "ledger.command.token.collect_fee"
	TypeIncreaseStake                 = "ledger.command.token.stake.increase"
	TypeDecreaseStake                 = "ledger.command.token.stake.decrease"
	TypeSetTreasuryAccount            = "ledger.command.bridge.treasury.set"
	TypeSetTransferToPublicNetworkFee = "ledger.command.bridge.fee.set"
	TypeLinkPublicAccount             = "ledger.command.bridge.link"
	TypeUnlinkPublicAccount           = "ledger.command.bridge.unlink"
	TypeTransferFromPublicNetwork     = "ledger.command.bridge.transfer_in"
	TypeAcceptTransfer                = "ledger.command.redeem.accept"
	TypeRejectTransfer                = "ledger.command.redeem.reject"
	TypeRegisterCustomer              = "ledger.command.customers.register"
	TypeUpdateCustomer                = "ledger.command.customers.update"
)

type AddRoleMessage struct {
	Caller   core.Account
	Resource core.Account
	Account  core.Account
	Role     string
}

func (AddRoleMessage) Type() string { return TypeAddRole }

func (m AddRoleMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateAccount("resource", m.Resource); err != nil {
		return err
	}
	if err := validateAccount("account", m.Account); err != nil {
		return err
	}
	return validateRole(m.Role)
}

type RemoveRoleMessage struct {
	Caller   core.Account
	Resource core.Account
	Account  core.Account
	Role     string
}

func (RemoveRoleMessage) Type() string { return TypeRemoveRole }

func (m RemoveRoleMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateAccount("resource", m.Resource); err != nil {
		return err
	}
	if err := validateAccount("account", m.Account); err != nil {
		return err
	}
	return validateRole(m.Role)
}

type RenounceRoleMessage struct {
	Caller   core.Account
	Resource core.Account
	Role     string
}

func (RenounceRoleMessage) Type() string { return TypeRenounceRole }

func (m RenounceRoleMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateAccount("resource", m.Resource); err != nil {
		return err
	}
	return validateRole(m.Role)
}

type RenounceOwnershipMessage struct {
	Caller core.Account
}

func (RenounceOwnershipMessage) Type() string { return TypeRenounceOwnership }

func (m RenounceOwnershipMessage) Validate() error {
	return validateAccount("caller", m.Caller)
}

type MintMessage struct {
	Caller core.Account
	To     core.Account
	Amount uint64
}

func (MintMessage) Type() string { return TypeMint }

func (m MintMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("to", m.To)
}

type BurnMessage struct {
	Caller core.Account
	Amount uint64
	Data   []byte
}

func (BurnMessage) Type() string { return TypeBurn }

func (m BurnMessage) Validate() error {
	return validateAccount("caller", m.Caller)
}

type SendMessage struct {
	Caller core.Account
	To     core.Account
	Amount uint64
	Data   []byte
}

func (SendMessage) Type() string { return TypeSend }

func (m SendMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("to", m.To)
}

type SeizeFromMessage struct {
	Caller  core.Account
	Account core.Account
	Amount  uint64
	Reason  string
}

func (SeizeFromMessage) Type() string { return TypeSeizeFrom }

func (m SeizeFromMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("account", m.Account)
}

type CollectFeeMessage struct {
	Caller core.Account
	From   core.Account
	To     core.Account
	Amount uint64
	Reason string
}

func (CollectFeeMessage) Type() string { return TypeCollectFee }

func (m CollectFeeMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateAccount("from", m.From); err != nil {
		return err
	}
	return validateAccount("to", m.To)
}

type IncreaseStakeMessage struct {
	Caller  core.Account
	Account core.Account
	Amount  uint64
}

func (IncreaseStakeMessage) Type() string { return TypeIncreaseStake }

func (m IncreaseStakeMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("account", m.Account)
}

// DecreaseStakeMessage releases Released back to the balance and destroys
// Burnt out of the stake.
type DecreaseStakeMessage struct {
	Caller   core.Account
	Account  core.Account
	Released uint64
	Burnt    uint64
}

func (DecreaseStakeMessage) Type() string { return TypeDecreaseStake }

func (m DecreaseStakeMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("account", m.Account)
}

type SetTreasuryAccountMessage struct {
	Caller  core.Account
	Account core.Account
}

func (SetTreasuryAccountMessage) Type() string { return TypeSetTreasuryAccount }

func (m SetTreasuryAccountMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("account", m.Account)
}

type SetTransferToPublicNetworkFeeMessage struct {
	Caller core.Account
	Amount uint64
}

func (SetTransferToPublicNetworkFeeMessage) Type() string { return TypeSetTransferToPublicNetworkFee }

func (m SetTransferToPublicNetworkFeeMessage) Validate() error {
	return validateAccount("caller", m.Caller)
}

type LinkPublicAccountMessage struct {
	Caller   core.Account
	Internal core.Account
	Public   core.Account
	Fee      uint64
}

func (LinkPublicAccountMessage) Type() string { return TypeLinkPublicAccount }

func (m LinkPublicAccountMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateAccount("internal", m.Internal); err != nil {
		return err
	}
	return validateAccount("public", m.Public)
}

type UnlinkPublicAccountMessage struct {
	Caller   core.Account
	Internal core.Account
}

func (UnlinkPublicAccountMessage) Type() string { return TypeUnlinkPublicAccount }

func (m UnlinkPublicAccountMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	return validateAccount("internal", m.Internal)
}

type TransferFromPublicNetworkMessage struct {
	Caller           core.Account
	Public           core.Account
	Internal         core.Account
	PublicTransferID uint64
	Amount           uint64
}

func (TransferFromPublicNetworkMessage) Type() string { return TypeTransferFromPublicNetwork }

func (m TransferFromPublicNetworkMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateAccount("public", m.Public); err != nil {
		return err
	}
	return validateAccount("internal", m.Internal)
}

// AcceptTransferMessage settles a received transfer on the gateway named by
// Gateway (a redeem variant name such as "campaign_redeem").
type AcceptTransferMessage struct {
	Caller  core.Account
	Gateway string
	Key     core.CorrelationKey
}

func (AcceptTransferMessage) Type() string { return TypeAcceptTransfer }

func (m AcceptTransferMessage) Validate() error {
	return validateSettlement(m.Caller, m.Gateway, m.Key)
}

type RejectTransferMessage struct {
	Caller  core.Account
	Gateway string
	Key     core.CorrelationKey
}

func (RejectTransferMessage) Type() string { return TypeRejectTransfer }

func (m RejectTransferMessage) Validate() error {
	return validateSettlement(m.Caller, m.Gateway, m.Key)
}

type RegisterCustomerMessage struct {
	Caller     core.Account
	CustomerID string
	Address    core.Account
}

func (RegisterCustomerMessage) Type() string { return TypeRegisterCustomer }

func (m RegisterCustomerMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateCustomerID(m.CustomerID); err != nil {
		return err
	}
	return validateAccount("address", m.Address)
}

type UpdateCustomerMessage struct {
	Caller     core.Account
	CustomerID string
	Address    core.Account
}

func (UpdateCustomerMessage) Type() string { return TypeUpdateCustomer }

func (m UpdateCustomerMessage) Validate() error {
	if err := validateAccount("caller", m.Caller); err != nil {
		return err
	}
	if err := validateCustomerID(m.CustomerID); err != nil {
		return err
	}
	return validateAccount("address", m.Address)
}

func validateAccount(field string, account core.Account) error {
	if core.IsZeroAccount(account) {
		return commandValidationError(field, "must not be the zero address")
	}
	return nil
}

// validateRole only admits the roles components actually check, while the
// registry accepts any well-formed name.
func validateRole(role string) error {
	if strings.TrimSpace(role) == "" {
		return commandValidationError("role", "is required")
	}
	if !core.IsSupportedRole(role) {
		return commandValidationError("role", "is not a supported role")
	}
	return nil
}

func validateSettlement(caller core.Account, gateway string, key core.CorrelationKey) error {
	if err := validateAccount("caller", caller); err != nil {
		return err
	}
	if strings.TrimSpace(gateway) == "" {
		return commandValidationError("gateway", "is required")
	}
	if key == nil {
		return commandValidationError("key", "is required")
	}
	if err := key.Validate(); err != nil {
		return commandValidationError("key", err.Error())
	}
	return nil
}

func validateCustomerID(id string) error {
	if _, err := core.NormalizeCustomerID(id); err != nil {
		return commandValidationError("customer_id", "must be a canonical uuid")
	}
	return nil
}
