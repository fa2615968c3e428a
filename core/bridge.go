package core

import (
	"context"
	"strconv"
)

// BridgeGateway links ledger accounts to external network accounts and
// moves value across the link. Outbound transfers arrive through the ledger
// recipient hook; inbound ones are replayed by a Bridge role holder exactly
// once per external transfer id.
type BridgeGateway struct {
	host    *Host
	address Account
}

func NewBridgeGateway(host *Host, address Account) (*BridgeGateway, error) {
	gateway := &BridgeGateway{host: host, address: address}
	if err := host.Deploy(gateway); err != nil {
		return nil, err
	}
	return gateway, nil
}

func (g *BridgeGateway) Address() Account {
	return g.address
}

func (g *BridgeGateway) Initialize(ctx context.Context, caller Account, token Account, roles Account) (Receipt, error) {
	return g.host.Execute(ctx, "bridge.initialize", caller, func(f *Frame) error {
		if err := initializeOnce(f, g.address); err != nil {
			return err
		}
		if IsZeroAccount(token) {
			return errBadInput("bridge: token is the zero address")
		}
		if IsZeroAccount(roles) {
			return errBadInput("bridge: role registry is the zero address")
		}
		if _, err := resolveContract[*TokenLedger](f, token, "bridge", "token ledger"); err != nil {
			return err
		}
		if _, err := resolveContract[*RoleRegistry](f, roles, "bridge", "role registry"); err != nil {
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

func (g *BridgeGateway) SetTreasuryAccount(ctx context.Context, caller Account, account Account) (Receipt, error) {
	return g.host.Execute(ctx, "bridge.set_treasury_account", caller, func(f *Frame) error {
		if err := g.requireRole(f, RoleOwner); err != nil {
			return err
		}
		if IsZeroAccount(account) {
			return errBadInput("bridge: account is the zero address")
		}
		if err := f.storeAccount(g.key("treasury"), account); err != nil {
			return err
		}
		f.emit(g.address, EventTreasuryAccountSet, map[string]any{
			"account": account.Hex(),
		})
		return nil
	})
}

func (g *BridgeGateway) SetTransferToPublicNetworkFee(ctx context.Context, caller Account, amount uint64) (Receipt, error) {
	return g.host.Execute(ctx, "bridge.set_transfer_fee", caller, func(f *Frame) error {
		if err := g.requireRole(f, RoleManager); err != nil {
			return err
		}
		if err := f.storeUint(g.key("fee"), amount); err != nil {
			return err
		}
		f.emit(g.address, EventTransferToPublicNetworkFeeSet, map[string]any{
			"amount": amount,
		})
		return nil
	})
}

// LinkPublicAccount links internal to external, replacing any previous link
// of internal. A non-zero fee is charged to internal and paid to treasury.
func (g *BridgeGateway) LinkPublicAccount(ctx context.Context, caller Account, internal Account, external Account, fee uint64) (Receipt, error) {
	return g.host.Execute(ctx, "bridge.link_public_account", caller, func(f *Frame) error {
		if err := g.requireRole(f, RoleLinker); err != nil {
			return err
		}
		if IsZeroAccount(internal) {
			return errBadInput("bridge: internal account is the zero address")
		}
		if IsZeroAccount(external) {
			return errBadInput("bridge: public account is the zero address")
		}
		owner, err := f.loadAccount(g.inboundKey(external))
		if err != nil {
			return err
		}
		if !IsZeroAccount(owner) && owner != internal {
			return errInvalidState("bridge: public account is already linked")
		}
		current, err := f.loadAccount(g.outboundKey(internal))
		if err != nil {
			return err
		}
		if !IsZeroAccount(current) {
			if err := g.unlink(f, internal, current); err != nil {
				return err
			}
		}
		if err := f.storeAccount(g.outboundKey(internal), external); err != nil {
			return err
		}
		if err := f.storeAccount(g.inboundKey(external), internal); err != nil {
			return err
		}
		f.emit(g.address, EventPublicAccountLinked, map[string]any{
			"internalAccount": internal.Hex(),
			"publicAccount":   external.Hex(),
		})
		if fee == 0 {
			return nil
		}
		return g.chargeFee(f, internal, fee, f.host.config.FeeReasons.AccountLinking)
	})
}

func (g *BridgeGateway) UnlinkPublicAccount(ctx context.Context, caller Account, internal Account) (Receipt, error) {
	return g.host.Execute(ctx, "bridge.unlink_public_account", caller, func(f *Frame) error {
		if err := g.requireRole(f, RoleLinker); err != nil {
			return err
		}
		if IsZeroAccount(internal) {
			return errBadInput("bridge: account is the zero address")
		}
		external, err := f.loadAccount(g.outboundKey(internal))
		if err != nil {
			return err
		}
		if IsZeroAccount(external) {
			return errInvalidState("bridge: public account is not linked")
		}
		return g.unlink(f, internal, external)
	})
}

// TransferFromPublicNetwork credits internal from the gateway's own balance
// for an inbound transfer observed on the external network.
func (g *BridgeGateway) TransferFromPublicNetwork(
	ctx context.Context,
	caller Account,
	external Account,
	internal Account,
	externalTransferID uint64,
	amount uint64,
) (Receipt, error) {
	return g.host.Execute(ctx, "bridge.transfer_from_public_network", caller, func(f *Frame) error {
		if err := g.requireRole(f, RoleBridge); err != nil {
			return err
		}
		if IsZeroAccount(external) {
			return errBadInput("bridge: public account is the zero address")
		}
		if IsZeroAccount(internal) {
			return errBadInput("bridge: internal account is the zero address")
		}
		fresh, err := claimOnce(f, g.processedKey(externalTransferID))
		if err != nil {
			return err
		}
		if !fresh {
			return errReplayed("bridge: incoming transfer has already been processed")
		}
		token, err := g.token(f)
		if err != nil {
			return err
		}
		nested, err := f.call(g.address)
		if err != nil {
			return err
		}
		if err := token.send(nested, internal, amount, nil); err != nil {
			return err
		}
		f.emit(g.address, EventTransferredFromPublicNetwork, map[string]any{
			"publicTransferId": externalTransferID,
			"publicAccount":    external.Hex(),
			"internalAccount":  internal.Hex(),
			"amount":           amount,
		})
		return nil
	})
}

func (g *BridgeGateway) GetPublicAccount(ctx context.Context, internal Account) (Account, error) {
	return g.readAccount(ctx, internal, g.outboundKey)
}

func (g *BridgeGateway) GetInternalAccount(ctx context.Context, external Account) (Account, error) {
	return g.readAccount(ctx, external, g.inboundKey)
}

func (g *BridgeGateway) IsProcessed(ctx context.Context, externalTransferID uint64) (bool, error) {
	var out bool
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadFlag(g.processedKey(externalTransferID))
		return err
	})
	return out, err
}

func (g *BridgeGateway) TreasuryAccount(ctx context.Context) (Account, error) {
	var out Account
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadAccount(g.key("treasury"))
		return err
	})
	return out, err
}

func (g *BridgeGateway) TransferToPublicNetworkFee(ctx context.Context) (uint64, error) {
	var out uint64
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadUint(g.key("fee"))
		return err
	})
	return out, err
}

// TransfersToPublicNetwork is the number of outbound transfers so far; it is
// also the id the next outbound transfer will get.
func (g *BridgeGateway) TransfersToPublicNetwork(ctx context.Context) (uint64, error) {
	var out uint64
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadUint(g.key("next_transfer_id"))
		return err
	})
	return out, err
}

func (g *BridgeGateway) Version(ctx context.Context) (uint64, error) {
	var out uint64
	err := g.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = readVersion(f, g.address)
		return err
	})
	return out, err
}

// OnValueReceived turns a ledger transfer into the gateway into an outbound
// transfer to the sender's linked public account.
func (g *BridgeGateway) OnValueReceived(f *Frame, transfer ValueTransfer) error {
	if err := requireInitialized(f, g.address, "bridge"); err != nil {
		return err
	}
	tokenAddress, err := f.loadAccount(g.key("token"))
	if err != nil {
		return err
	}
	if f.Caller() != tokenAddress {
		return errUnauthorized("bridge: sender is not the ledger token")
	}
	if IsZeroAccount(transfer.From) {
		return errBadInput("bridge: from is the zero address")
	}
	external, err := f.loadAccount(g.outboundKey(transfer.From))
	if err != nil {
		return err
	}
	if IsZeroAccount(external) {
		return errInvalidState("bridge: public account is not linked")
	}
	fee, err := f.loadUint(g.key("fee"))
	if err != nil {
		return err
	}
	if fee > 0 {
		if err := g.chargeFee(f, transfer.From, fee, f.host.config.FeeReasons.OutboundTransfer); err != nil {
			return err
		}
	}
	id, err := f.loadUint(g.key("next_transfer_id"))
	if err != nil {
		return err
	}
	next, err := checkedAdd(id, 1, "bridge: transfer id overflow")
	if err != nil {
		return err
	}
	if err := f.storeUint(g.key("next_transfer_id"), next); err != nil {
		return err
	}
	f.emit(g.address, EventTransferredToPublicNetwork, map[string]any{
		"internalTransferId": id,
		"internalAccount":    transfer.From.Hex(),
		"publicAccount":      external.Hex(),
		"amount":             transfer.Amount,
	})
	return nil
}

func (g *BridgeGateway) chargeFee(f *Frame, from Account, fee uint64, reason string) error {
	treasury, err := f.loadAccount(g.key("treasury"))
	if err != nil {
		return err
	}
	if IsZeroAccount(treasury) {
		return errInvalidState("bridge: treasury account is not set")
	}
	token, err := g.token(f)
	if err != nil {
		return err
	}
	nested, err := f.call(g.address)
	if err != nil {
		return err
	}
	return token.collectFee(nested, from, treasury, fee, reason)
}

func (g *BridgeGateway) unlink(f *Frame, internal Account, external Account) error {
	f.remove(g.outboundKey(internal))
	f.remove(g.inboundKey(external))
	f.emit(g.address, EventPublicAccountUnlinked, map[string]any{
		"internalAccount": internal.Hex(),
		"publicAccount":   external.Hex(),
	})
	return nil
}

func (g *BridgeGateway) requireRole(f *Frame, role string) error {
	if err := requireInitialized(f, g.address, "bridge"); err != nil {
		return err
	}
	roles, err := f.loadAccount(g.key("roles"))
	if err != nil {
		return err
	}
	return requireRole(f, roles, g.address, role, "bridge")
}

func (g *BridgeGateway) token(f *Frame) (*TokenLedger, error) {
	address, err := f.loadAccount(g.key("token"))
	if err != nil {
		return nil, err
	}
	return resolveContract[*TokenLedger](f, address, "bridge", "token ledger")
}

func (g *BridgeGateway) readAccount(ctx context.Context, account Account, key func(Account) string) (Account, error) {
	var out Account
	err := g.host.View(ctx, func(f *Frame) error {
		if IsZeroAccount(account) {
			return errBadInput("bridge: account is the zero address")
		}
		var err error
		out, err = f.loadAccount(key(account))
		return err
	})
	return out, err
}

func (g *BridgeGateway) key(name string) string {
	return stateKey(g.address, name)
}

func (g *BridgeGateway) outboundKey(internal Account) string {
	return stateKey(g.address, "link", accountPart(internal))
}

func (g *BridgeGateway) inboundKey(external Account) string {
	return stateKey(g.address, "reverse_link", accountPart(external))
}

func (g *BridgeGateway) processedKey(externalTransferID uint64) string {
	return stateKey(g.address, "processed", strconv.FormatUint(externalTransferID, 10))
}

// registerRecipient points the value recipient hook of self at self.
func registerRecipient(f *Frame, self Account) error {
	nested, err := f.call(self)
	if err != nil {
		return err
	}
	return f.host.hooks.setImplementer(nested, self, ValueRecipientInterface, self)
}
