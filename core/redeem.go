package core

import (
	"context"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
)

type TransferState uint64

const (
	TransferStateNone TransferState = iota
	TransferStateReceived
	TransferStateAccepted
	TransferStateRejected
)

func (s TransferState) String() string {
	switch s {
	case TransferStateReceived:
		return "received"
	case TransferStateAccepted:
		return "accepted"
	case TransferStateRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Disposition is what a gateway does with the received value once a transfer
// is settled.
type Disposition string

const (
	DispositionRetain Disposition = "retain"
	DispositionBurn   Disposition = "burn"
	DispositionRefund Disposition = "refund"
)

// RedeemVariant fixes the key shape and settlement behaviour of a gateway.
type RedeemVariant struct {
	Name     string
	Codec    KeyCodec
	OnAccept Disposition
	OnReject Disposition
}

func GenericRedeemVariant() RedeemVariant {
	return RedeemVariant{
		Name:     "redeem",
		Codec:    OpaqueKeyCodec(),
		OnAccept: DispositionBurn,
		OnReject: DispositionRefund,
	}
}

func CampaignRedeemVariant() RedeemVariant {
	return RedeemVariant{
		Name:     "campaign_redeem",
		Codec:    CampaignKeyCodec(),
		OnAccept: DispositionRetain,
		OnReject: DispositionRetain,
	}
}

func HospitalityRedeemVariant() RedeemVariant {
	return RedeemVariant{
		Name:     "hospitality_redeem",
		Codec:    HospitalityKeyCodec(),
		OnAccept: DispositionRetain,
		OnReject: DispositionRetain,
	}
}

type ReceivedTransfer struct {
	Index  uint64
	Sender Account
	Amount uint64
	Key    CorrelationKey
	State  TransferState
}

type transferRecord struct {
	Sender Account
	Amount uint64
	Key    []byte
	State  uint64
}

// RedeemGateway accepts ledger transfers tagged with a correlation key and
// lets a Manager settle each of them once. A key is consumed forever by its
// first receipt.
type RedeemGateway struct {
	host    *Host
	address Account
	variant RedeemVariant
}

func NewRedeemGateway(host *Host, address Account, variant RedeemVariant) (*RedeemGateway, error) {
	if variant.Codec == nil {
		return nil, errBadInput("redeem: key codec is required")
	}
	if variant.Name == "" {
		variant.Name = variant.Codec.Kind() + "_redeem"
	}
	gateway := &RedeemGateway{host: host, address: address, variant: variant}
	if err := host.Deploy(gateway); err != nil {
		return nil, err
	}
	return gateway, nil
}

func (g *RedeemGateway) Address() Account {
	return g.address
}

func (g *RedeemGateway) Variant() RedeemVariant {
	return g.variant
}

func (g *RedeemGateway) Initialize(ctx context.Context, caller Account, token Account, roles Account) (Receipt, error) {
	return g.host.Execute(ctx, g.operation("initialize"), caller, func(f *Frame) error {
		if err := initializeOnce(f, g.address); err != nil {
			return err
		}
		if IsZeroAccount(token) {
			return errBadInput("redeem: token is the zero address")
		}
		if IsZeroAccount(roles) {
			return errBadInput("redeem: role registry is the zero address")
		}
		if _, err := resolveContract[*TokenLedger](f, token, "redeem", "token ledger"); err != nil {
			return err
		}
		if _, err := resolveContract[*RoleRegistry](f, roles, "redeem", "role registry"); err != nil {
			return err
		}
		if err := f.storeAccount(g.key("token"), token); err != nil {
			return err
		}
		if err := f.storeAccount(g.key("roles"), roles); err != nil {
			return err
		}
		return registerRecipient(f, g.address)
	})
}

func (g *RedeemGateway) AcceptTransfer(ctx context.Context, caller Account, key CorrelationKey) (Receipt, error) {
	return g.host.Execute(ctx, g.operation("accept_transfer"), caller, func(f *Frame) error {
		return g.settle(f, key, TransferStateAccepted, EventTransferAccepted, g.variant.OnAccept)
	})
}

func (g *RedeemGateway) RejectTransfer(ctx context.Context, caller Account, key CorrelationKey) (Receipt, error) {
	return g.host.Execute(ctx, g.operation("reject_transfer"), caller, func(f *Frame) error {
		return g.settle(f, key, TransferStateRejected, EventTransferRejected, g.variant.OnReject)
	})
}

func (g *RedeemGateway) IsReceived(ctx context.Context, key CorrelationKey) (bool, error) {
	return g.hasState(ctx, key, TransferStateReceived)
}

func (g *RedeemGateway) IsAccepted(ctx context.Context, key CorrelationKey) (bool, error) {
	return g.hasState(ctx, key, TransferStateAccepted)
}

func (g *RedeemGateway) IsRejected(ctx context.Context, key CorrelationKey) (bool, error) {
	return g.hasState(ctx, key, TransferStateRejected)
}

func (g *RedeemGateway) State(ctx context.Context, key CorrelationKey) (TransferState, error) {
	var out TransferState
	err := g.host.View(ctx, func(f *Frame) error {
		_, record, found, err := g.lookup(f, key)
		if err != nil || !found {
			return err
		}
		out = TransferState(record.State)
		return nil
	})
	return out, err
}

func (g *RedeemGateway) TransfersCount(ctx context.Context) (uint64, error) {
	var out uint64
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadUint(g.key("count"))
		return err
	})
	return out, err
}

// GetTransfer returns the transfer received at index, or a zero record when
// there is none.
func (g *RedeemGateway) GetTransfer(ctx context.Context, index uint64) (ReceivedTransfer, error) {
	var out ReceivedTransfer
	err := g.host.View(ctx, func(f *Frame) error {
		var record transferRecord
		found, err := f.load(g.recordKey(index), &record)
		if err != nil || !found {
			return err
		}
		key, err := g.variant.Codec.Decode(record.Key)
		if err != nil {
			return errInternal(err, "redeem: decode stored key")
		}
		out = ReceivedTransfer{
			Index:  index,
			Sender: record.Sender,
			Amount: record.Amount,
			Key:    key,
			State:  TransferState(record.State),
		}
		return nil
	})
	return out, err
}

func (g *RedeemGateway) Version(ctx context.Context) (uint64, error) {
	var out uint64
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = readVersion(f, g.address)
		return err
	})
	return out, err
}

// OnValueReceived records an incoming transfer under the key carried in its
// data.
func (g *RedeemGateway) OnValueReceived(f *Frame, transfer ValueTransfer) error {
	if err := requireInitialized(f, g.address, "redeem"); err != nil {
		return err
	}
	token, err := f.loadAccount(g.key("token"))
	if err != nil {
		return err
	}
	if f.Caller() != token {
		return errUnauthorized("redeem: sender is not the ledger token")
	}
	if IsZeroAccount(transfer.From) {
		return errBadInput("redeem: from is the zero address")
	}
	key, err := g.variant.Codec.Decode(transfer.Data)
	if err != nil {
		return err
	}
	digest, err := keyDigest(g.variant.Codec, key)
	if err != nil {
		return err
	}
	_, existing, found, err := g.lookupDigest(f, digest)
	if err != nil {
		return err
	}
	if found {
		return errInvalidState("redeem: transfer has already been %s", TransferState(existing.State))
	}
	encoded, err := g.variant.Codec.Encode(key)
	if err != nil {
		return err
	}
	index, err := f.loadUint(g.key("count"))
	if err != nil {
		return err
	}
	next, err := checkedAdd(index, 1, "redeem: transfer count overflow")
	if err != nil {
		return err
	}
	if err := f.store(g.recordKey(index), transferRecord{
		Sender: transfer.From,
		Amount: transfer.Amount,
		Key:    encoded,
		State:  uint64(TransferStateReceived),
	}); err != nil {
		return err
	}
	if err := f.storeUint(g.digestKey(digest), next); err != nil {
		return err
	}
	return f.storeUint(g.key("count"), next)
}

func (g *RedeemGateway) settle(f *Frame, key CorrelationKey, target TransferState, event string, disposition Disposition) error {
	if err := g.requireRole(f, RoleManager); err != nil {
		return err
	}
	index, record, found, err := g.lookup(f, key)
	if err != nil {
		return err
	}
	if !found {
		return errInvalidState("redeem: transfer has not been received")
	}
	if state := TransferState(record.State); state != TransferStateReceived {
		return errInvalidState("redeem: transfer has already been %s", state)
	}
	record.State = uint64(target)
	if err := f.store(g.recordKey(index), record); err != nil {
		return err
	}
	f.emit(g.address, event, key.Fields())
	return g.dispose(f, record, disposition)
}

func (g *RedeemGateway) dispose(f *Frame, record transferRecord, disposition Disposition) error {
	if disposition == DispositionRetain || record.Amount == 0 {
		return nil
	}
	address, err := f.loadAccount(g.key("token"))
	if err != nil {
		return err
	}
	token, err := resolveContract[*TokenLedger](f, address, "redeem", "token ledger")
	if err != nil {
		return err
	}
	nested, err := f.call(g.address)
	if err != nil {
		return err
	}
	switch disposition {
	case DispositionBurn:
		return token.burn(nested, record.Amount, nil)
	case DispositionRefund:
		return token.send(nested, record.Sender, record.Amount, nil)
	default:
		return newLedgerError("redeem: unknown disposition "+string(disposition), goerrors.CategoryInternal, LedgerErrorInternal)
	}
}

func (g *RedeemGateway) hasState(ctx context.Context, key CorrelationKey, state TransferState) (bool, error) {
	current, err := g.State(ctx, key)
	if err != nil {
		return false, err
	}
	return current == state, nil
}

func (g *RedeemGateway) lookup(f *Frame, key CorrelationKey) (uint64, transferRecord, bool, error) {
	digest, err := keyDigest(g.variant.Codec, key)
	if err != nil {
		return 0, transferRecord{}, false, err
	}
	return g.lookupDigest(f, digest)
}

func (g *RedeemGateway) lookupDigest(f *Frame, digest string) (uint64, transferRecord, bool, error) {
	position, err := f.loadUint(g.digestKey(digest))
	if err != nil || position == 0 {
		return 0, transferRecord{}, false, err
	}
	var record transferRecord
	found, err := f.load(g.recordKey(position-1), &record)
	if err != nil {
		return 0, transferRecord{}, false, err
	}
	if !found {
		return 0, transferRecord{}, false, newLedgerError("redeem: transfer record is missing", goerrors.CategoryInternal, LedgerErrorInternal)
	}
	return position - 1, record, true, nil
}

func (g *RedeemGateway) requireRole(f *Frame, role string) error {
	if err := requireInitialized(f, g.address, "redeem"); err != nil {
		return err
	}
	roles, err := f.loadAccount(g.key("roles"))
	if err != nil {
		return err
	}
	return requireRole(f, roles, g.address, role, "redeem")
}

func (g *RedeemGateway) operation(name string) string {
	return g.variant.Name + "." + name
}

func (g *RedeemGateway) key(name string) string {
	return stateKey(g.address, name)
}

func (g *RedeemGateway) recordKey(index uint64) string {
	return stateKey(g.address, "transfer", strconv.FormatUint(index, 10))
}

func (g *RedeemGateway) digestKey(digest string) string {
	return stateKey(g.address, "key", digest)
}
