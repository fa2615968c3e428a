package core

import (
	"context"
	"encoding/hex"
	"math/bits"

	goerrors "github.com/goliatone/go-errors"
)

// TokenLedger keeps balances, stakes and total supply. Balances only change
// through mint, burn, send, fee collection, seizure and stake burns, and the
// staked part of a balance is never spendable.
type TokenLedger struct {
	host    *Host
	address Account
}

type AccountBalance struct {
	Account Account
	Balance uint64
	Stake   uint64
}

func NewTokenLedger(host *Host, address Account) (*TokenLedger, error) {
	token := &TokenLedger{host: host, address: address}
	if err := host.Deploy(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (t *TokenLedger) Address() Account {
	return t.address
}

func (t *TokenLedger) Initialize(ctx context.Context, caller Account, roles Account) (Receipt, error) {
	return t.host.Execute(ctx, "token.initialize", caller, func(f *Frame) error {
		if err := initializeOnce(f, t.address); err != nil {
			return err
		}
		if IsZeroAccount(roles) {
			return errBadInput("token: role registry is the zero address")
		}
		if _, err := resolveContract[*RoleRegistry](f, roles, "token", "role registry"); err != nil {
			return err
		}
		return f.storeAccount(t.rolesKey(), roles)
	})
}

func (t *TokenLedger) Mint(ctx context.Context, caller Account, to Account, amount uint64) (Receipt, error) {
	return t.host.Execute(ctx, "token.mint", caller, func(f *Frame) error {
		return t.mint(f, to, amount, nil)
	})
}

func (t *TokenLedger) Burn(ctx context.Context, caller Account, amount uint64, data []byte) (Receipt, error) {
	return t.host.Execute(ctx, "token.burn", caller, func(f *Frame) error {
		return t.burn(f, amount, data)
	})
}

func (t *TokenLedger) Send(ctx context.Context, caller Account, to Account, amount uint64, data []byte) (Receipt, error) {
	return t.host.Execute(ctx, "token.send", caller, func(f *Frame) error {
		return t.send(f, to, amount, data)
	})
}

func (t *TokenLedger) SeizeFrom(ctx context.Context, caller Account, account Account, amount uint64, reason string) (Receipt, error) {
	return t.host.Execute(ctx, "token.seize_from", caller, func(f *Frame) error {
		return t.seizeFrom(f, account, amount, reason)
	})
}

func (t *TokenLedger) CollectFee(ctx context.Context, caller Account, from Account, to Account, amount uint64, reason string) (Receipt, error) {
	return t.host.Execute(ctx, "token.collect_fee", caller, func(f *Frame) error {
		return t.collectFee(f, from, to, amount, reason)
	})
}

func (t *TokenLedger) IncreaseStake(ctx context.Context, caller Account, account Account, amount uint64) (Receipt, error) {
	return t.host.Execute(ctx, "token.increase_stake", caller, func(f *Frame) error {
		return t.increaseStake(f, account, amount)
	})
}

func (t *TokenLedger) DecreaseStake(ctx context.Context, caller Account, account Account, released uint64, burnt uint64) (Receipt, error) {
	return t.host.Execute(ctx, "token.decrease_stake", caller, func(f *Frame) error {
		return t.decreaseStake(f, account, released, burnt)
	})
}

func (t *TokenLedger) BalanceOf(ctx context.Context, account Account) (uint64, error) {
	out, err := t.Account(ctx, account)
	return out.Balance, err
}

func (t *TokenLedger) StakeOf(ctx context.Context, account Account) (uint64, error) {
	out, err := t.Account(ctx, account)
	return out.Stake, err
}

// Account returns balance and stake read in one view.
func (t *TokenLedger) Account(ctx context.Context, account Account) (AccountBalance, error) {
	out := AccountBalance{Account: account}
	err := t.host.View(ctx, func(f *Frame) error {
		if IsZeroAccount(account) {
			return errBadInput("token: account is the zero address")
		}
		var err error
		if out.Balance, err = t.balance(f, account); err != nil {
			return err
		}
		out.Stake, err = t.observedStake(f, account, out.Balance)
		return err
	})
	return out, err
}

func (t *TokenLedger) TotalSupply(ctx context.Context) (uint64, error) {
	var out uint64
	err := t.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadUint(stateKey(t.address, "supply"))
		return err
	})
	return out, err
}

func (t *TokenLedger) RoleRegistry(ctx context.Context) (Account, error) {
	var out Account
	err := t.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadAccount(t.rolesKey())
		return err
	})
	return out, err
}

func (t *TokenLedger) Version(ctx context.Context) (uint64, error) {
	var out uint64
	err := t.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = readVersion(f, t.address)
		return err
	})
	return out, err
}

func (t *TokenLedger) requireRole(f *Frame, role string) error {
	if err := requireInitialized(f, t.address, "token"); err != nil {
		return err
	}
	roles, err := f.loadAccount(t.rolesKey())
	if err != nil {
		return err
	}
	return requireRole(f, roles, t.address, role, "token")
}

func (t *TokenLedger) mint(f *Frame, to Account, amount uint64, data []byte) error {
	if err := t.requireRole(f, RoleMinter); err != nil {
		return err
	}
	if IsZeroAccount(to) {
		return errBadInput("token: to is the zero address")
	}
	balance, err := t.balance(f, to)
	if err != nil {
		return err
	}
	if balance, err = checkedAdd(balance, amount, "token: balance overflow"); err != nil {
		return err
	}
	if err := t.adjustSupply(f, amount, true); err != nil {
		return err
	}
	if err := t.setBalance(f, to, balance); err != nil {
		return err
	}
	operator := f.Caller()
	if err := t.notifyRecipient(f, ValueTransfer{
		Operator: operator,
		From:     ZeroAccount,
		To:       to,
		Amount:   amount,
		Data:     data,
	}); err != nil {
		return err
	}
	f.emit(t.address, EventMinted, map[string]any{
		"operator": operator.Hex(),
		"to":       to.Hex(),
		"amount":   amount,
		"data":     encodeData(data),
	})
	return nil
}

func (t *TokenLedger) burn(f *Frame, amount uint64, data []byte) error {
	if err := requireInitialized(f, t.address, "token"); err != nil {
		return err
	}
	holder := f.Caller()
	if err := t.debitSpendable(f, holder, amount); err != nil {
		return err
	}
	if err := t.adjustSupply(f, amount, false); err != nil {
		return err
	}
	f.emit(t.address, EventBurned, map[string]any{
		"operator": holder.Hex(),
		"from":     holder.Hex(),
		"amount":   amount,
		"data":     encodeData(data),
	})
	return nil
}

// send moves value from the frame caller to to and then runs the recipient
// hook, if to registered one.
func (t *TokenLedger) send(f *Frame, to Account, amount uint64, data []byte) error {
	if err := requireInitialized(f, t.address, "token"); err != nil {
		return err
	}
	if IsZeroAccount(to) {
		return errBadInput("token: to is the zero address")
	}
	from := f.Caller()
	if err := t.move(f, from, to, amount); err != nil {
		return err
	}
	f.emit(t.address, EventSent, map[string]any{
		"operator": from.Hex(),
		"from":     from.Hex(),
		"to":       to.Hex(),
		"amount":   amount,
		"data":     encodeData(data),
	})
	return t.notifyRecipient(f, ValueTransfer{
		Operator: from,
		From:     from,
		To:       to,
		Amount:   amount,
		Data:     data,
	})
}

func (t *TokenLedger) seizeFrom(f *Frame, account Account, amount uint64, reason string) error {
	if err := t.requireRole(f, RoleSeizer); err != nil {
		return err
	}
	if IsZeroAccount(account) {
		return errBadInput("token: account is the zero address")
	}
	seized, err := t.burnClamped(f, account, amount)
	if err != nil {
		return err
	}
	f.emit(t.address, EventSeizeFrom, map[string]any{
		"account": account.Hex(),
		"amount":  seized,
		"reason":  reason,
	})
	return nil
}

func (t *TokenLedger) collectFee(f *Frame, from Account, to Account, amount uint64, reason string) error {
	if err := t.requireRole(f, RoleFeeCollector); err != nil {
		return err
	}
	if IsZeroAccount(from) {
		return errBadInput("token: from is the zero address")
	}
	if IsZeroAccount(to) {
		return errBadInput("token: to is the zero address")
	}
	if err := t.move(f, from, to, amount); err != nil {
		return err
	}
	f.emit(t.address, EventFeeCollected, map[string]any{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": amount,
		"reason": reason,
	})
	return nil
}

func (t *TokenLedger) increaseStake(f *Frame, account Account, amount uint64) error {
	if err := t.requireRole(f, RoleStaker); err != nil {
		return err
	}
	if IsZeroAccount(account) {
		return errBadInput("token: account is the zero address")
	}
	stake, err := t.stake(f, account)
	if err != nil {
		return err
	}
	balance, err := t.balance(f, account)
	if err != nil {
		return err
	}
	next, err := checkedAdd(stake, amount, "token: stake overflow")
	if err != nil {
		return err
	}
	if next > balance {
		return errInsufficientFunds("token: stake exceeds balance")
	}
	if err := f.storeUint(t.stakeKey(account), next); err != nil {
		return err
	}
	f.emit(t.address, EventStakeIncreased, map[string]any{
		"account": account.Hex(),
		"amount":  amount,
	})
	return nil
}

// decreaseStake releases stake and burns up to burnt from the balance. The
// burn is clamped to the balance rather than failing.
func (t *TokenLedger) decreaseStake(f *Frame, account Account, released uint64, burnt uint64) error {
	if err := t.requireRole(f, RoleStaker); err != nil {
		return err
	}
	if IsZeroAccount(account) {
		return errBadInput("token: account is the zero address")
	}
	stake, err := t.stake(f, account)
	if err != nil {
		return err
	}
	if released > stake {
		return errInsufficientFunds("token: amount exceeds stake")
	}
	if err := f.storeUint(t.stakeKey(account), stake-released); err != nil {
		return err
	}
	if _, err := t.burnClamped(f, account, burnt); err != nil {
		return err
	}
	f.emit(t.address, EventStakeDecreased, map[string]any{
		"account":        account.Hex(),
		"releasedAmount": released,
		"burntAmount":    burnt,
	})
	return nil
}

// burnClamped removes min(amount, balance) from account. The stored stake is
// left alone so a later release still matches what was staked.
func (t *TokenLedger) burnClamped(f *Frame, account Account, amount uint64) (uint64, error) {
	balance, err := t.balance(f, account)
	if err != nil {
		return 0, err
	}
	burnt := min(amount, balance)
	balance -= burnt
	if err := t.setBalance(f, account, balance); err != nil {
		return 0, err
	}
	if err := t.adjustSupply(f, burnt, false); err != nil {
		return 0, err
	}
	return burnt, nil
}

func (t *TokenLedger) move(f *Frame, from Account, to Account, amount uint64) error {
	if err := t.debitSpendable(f, from, amount); err != nil {
		return err
	}
	balance, err := t.balance(f, to)
	if err != nil {
		return err
	}
	if balance, err = checkedAdd(balance, amount, "token: balance overflow"); err != nil {
		return err
	}
	return t.setBalance(f, to, balance)
}

func (t *TokenLedger) debitSpendable(f *Frame, account Account, amount uint64) error {
	balance, err := t.balance(f, account)
	if err != nil {
		return err
	}
	stake, err := t.stake(f, account)
	if err != nil {
		return err
	}
	if stake > balance || amount > balance-stake {
		return errInsufficientFunds("token: amount exceeds non-staked balance")
	}
	return t.setBalance(f, account, balance-amount)
}

func (t *TokenLedger) notifyRecipient(f *Frame, transfer ValueTransfer) error {
	receiver, ok, err := f.host.hooks.receiver(f, transfer.To)
	if err != nil || !ok {
		return err
	}
	nested, err := f.call(t.address)
	if err != nil {
		return err
	}
	return receiver.OnValueReceived(nested, transfer)
}

func (t *TokenLedger) adjustSupply(f *Frame, amount uint64, increase bool) error {
	supply, err := f.loadUint(stateKey(t.address, "supply"))
	if err != nil {
		return err
	}
	if increase {
		if supply, err = checkedAdd(supply, amount, "token: total supply overflow"); err != nil {
			return err
		}
	} else {
		if amount > supply {
			return newLedgerError("token: total supply underflow", goerrors.CategoryInternal, LedgerErrorInternal)
		}
		supply -= amount
	}
	return f.storeUint(stateKey(t.address, "supply"), supply)
}

func (t *TokenLedger) balance(f *Frame, account Account) (uint64, error) {
	return f.loadUint(t.balanceKey(account))
}

func (t *TokenLedger) setBalance(f *Frame, account Account, value uint64) error {
	return f.storeUint(t.balanceKey(account), value)
}

func (t *TokenLedger) stake(f *Frame, account Account) (uint64, error) {
	return f.loadUint(t.stakeKey(account))
}

// observedStake is the stake as seen from outside: a seizure can leave the
// stored stake above the balance, and only the balance can still be held.
func (t *TokenLedger) observedStake(f *Frame, account Account, balance uint64) (uint64, error) {
	stake, err := t.stake(f, account)
	if err != nil {
		return 0, err
	}
	return min(stake, balance), nil
}

func (t *TokenLedger) rolesKey() string {
	return stateKey(t.address, "roles")
}

func (t *TokenLedger) balanceKey(account Account) string {
	return stateKey(t.address, "balance", accountPart(account))
}

func (t *TokenLedger) stakeKey(account Account) string {
	return stateKey(t.address, "stake", accountPart(account))
}

func checkedAdd(a uint64, b uint64, message string) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errBadInput("%s", message)
	}
	return sum, nil
}

func encodeData(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return "0x" + hex.EncodeToString(data)
}
