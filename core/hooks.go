package core

import (
	"context"
	"strings"
)

// ValueRecipientInterface is the interface name the ledger looks up before
// crediting an account.
const ValueRecipientInterface = "LedgerValueRecipient"

// HookRegistry maps (account, interface name) to the deployed component that
// implements the interface on behalf of the account. Mappings live in host
// state, so they follow the same commit/rollback rules as balances.
type HookRegistry struct {
	host    *Host
	address Account
}

func (r *HookRegistry) Address() Account {
	return r.address
}

// SetImplementer is only accepted from the account itself.
func (r *HookRegistry) SetImplementer(
	ctx context.Context,
	caller Account,
	account Account,
	iface string,
	implementer Account,
) (Receipt, error) {
	return r.host.Execute(ctx, "hooks.set_implementer", caller, func(f *Frame) error {
		return r.setImplementer(f, account, iface, implementer)
	})
}

func (r *HookRegistry) Implementer(ctx context.Context, account Account, iface string) (Account, error) {
	var out Account
	err := r.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = r.implementer(f, account, iface)
		return err
	})
	return out, err
}

func (r *HookRegistry) setImplementer(f *Frame, account Account, iface string, implementer Account) error {
	iface = strings.TrimSpace(iface)
	if IsZeroAccount(account) {
		return errBadInput("hooks: account is the zero address")
	}
	if iface == "" {
		return errBadInput("hooks: interface name is required")
	}
	if f.Caller() != account {
		return errUnauthorized("hooks: caller is not the account")
	}
	if !IsZeroAccount(implementer) {
		if _, ok := f.host.Contract(implementer); !ok {
			return errBadInput("hooks: implementer %s is not deployed", implementer.Hex())
		}
	}
	if err := f.storeAccount(r.implementerKey(account, iface), implementer); err != nil {
		return err
	}
	f.emit(r.address, EventInterfaceImplementerSet, map[string]any{
		"account":     account.Hex(),
		"interface":   iface,
		"implementer": implementer.Hex(),
	})
	return nil
}

func (r *HookRegistry) implementer(f *Frame, account Account, iface string) (Account, error) {
	return f.loadAccount(r.implementerKey(account, strings.TrimSpace(iface)))
}

// receiver resolves the value recipient hook for account, if any.
func (r *HookRegistry) receiver(f *Frame, account Account) (ValueReceiver, bool, error) {
	address, err := r.implementer(f, account, ValueRecipientInterface)
	if err != nil {
		return nil, false, err
	}
	if IsZeroAccount(address) {
		return nil, false, nil
	}
	receiver, err := resolveContract[ValueReceiver](f, address, "hooks", "value recipient")
	if err != nil {
		return nil, false, err
	}
	return receiver, true, nil
}

func (r *HookRegistry) implementerKey(account Account, iface string) string {
	return stateKey(r.address, "implementer", accountPart(account), namePart(iface))
}
