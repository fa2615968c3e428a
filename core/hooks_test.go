package core

import (
	"context"
	"errors"
	"testing"
)

func deployReceiver(t *testing.T, s *testSuite, label string) *recordingReceiver {
	t.Helper()
	receiver := &recordingReceiver{address: DeriveAccount(label)}
	if err := s.host.Deploy(receiver); err != nil {
		t.Fatalf("deploy receiver: %v", err)
	}
	mustExecute(t, "register receiver")(s.host.Hooks().SetImplementer(
		context.Background(),
		receiver.address,
		receiver.address,
		ValueRecipientInterface,
		receiver.address,
	))
	return receiver
}

func TestHookRegistry_OnlyAccountSetsImplementer(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)
	receiver := &recordingReceiver{address: DeriveAccount("test.receiver")}
	if err := s.host.Deploy(receiver); err != nil {
		t.Fatalf("deploy receiver: %v", err)
	}

	_, err := s.host.Hooks().SetImplementer(ctx, otherAccount, spenderAccount, ValueRecipientInterface, receiver.address)
	expectCode(t, err, LedgerErrorUnauthorized, "set for another account")

	_, err = s.host.Hooks().SetImplementer(ctx, spenderAccount, spenderAccount, ValueRecipientInterface, otherAccount)
	expectCode(t, err, LedgerErrorBadInput, "undeployed implementer")

	_, err = s.host.Hooks().SetImplementer(ctx, spenderAccount, spenderAccount, " ", receiver.address)
	expectCode(t, err, LedgerErrorBadInput, "blank interface")

	mustExecute(t, "set")(s.host.Hooks().SetImplementer(ctx, spenderAccount, spenderAccount, ValueRecipientInterface, receiver.address))
	implementer, err := s.host.Hooks().Implementer(ctx, spenderAccount, ValueRecipientInterface)
	if err != nil || implementer != receiver.address {
		t.Fatalf("expected implementer %s, got %s (%v)", receiver.address.Hex(), implementer.Hex(), err)
	}

	mustExecute(t, "clear")(s.host.Hooks().SetImplementer(ctx, spenderAccount, spenderAccount, ValueRecipientInterface, ZeroAccount))
	implementer, err = s.host.Hooks().Implementer(ctx, spenderAccount, ValueRecipientInterface)
	if err != nil || !IsZeroAccount(implementer) {
		t.Fatalf("expected cleared implementer, got %s (%v)", implementer.Hex(), err)
	}
}

func TestTokenLedger_SendNotifiesRecipientHook(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)
	receiver := deployReceiver(t, s, "test.receiver")
	s.mint(t, spenderAccount, 100)

	mustExecute(t, "send")(s.token.Send(ctx, spenderAccount, receiver.address, 25, []byte("memo")))
	if len(receiver.seen) != 1 {
		t.Fatalf("expected one hook call, got %d", len(receiver.seen))
	}
	seen := receiver.seen[0]
	if seen.From != spenderAccount || seen.To != receiver.address || seen.Amount != 25 || string(seen.Data) != "memo" {
		t.Fatalf("unexpected transfer: %+v", seen)
	}
}

func TestTokenLedger_FailingHookRollsBackSend(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)
	receiver := deployReceiver(t, s, "test.receiver")
	receiver.fail = errInvalidState("receiver: refusing value")
	s.mint(t, spenderAccount, 100)
	eventsBefore := len(s.store.Events())

	_, err := s.token.Send(ctx, spenderAccount, receiver.address, 25, nil)
	expectCode(t, err, LedgerErrorInvalidState, "send to failing hook")
	if got := s.balance(t, spenderAccount); got != 100 {
		t.Fatalf("expected sender debit to be rolled back, got %d", got)
	}
	if got := s.balance(t, receiver.address); got != 0 {
		t.Fatalf("expected recipient credit to be rolled back, got %d", got)
	}
	if got := len(s.store.Events()); got != eventsBefore {
		t.Fatalf("expected no committed events, got %d new", got-eventsBefore)
	}
}

func TestTokenLedger_HookSeesStateMutatedSoFar(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)
	receiver := deployReceiver(t, s, "test.forwarder")
	var observed uint64
	receiver.onCall = func(f *Frame, transfer ValueTransfer) error {
		balance, err := s.token.balance(f, receiver.address)
		if err != nil {
			return err
		}
		observed = balance
		nested, err := f.call(receiver.address)
		if err != nil {
			return err
		}
		return s.token.send(nested, otherAccount, transfer.Amount/2, nil)
	}
	s.mint(t, spenderAccount, 100)

	mustExecute(t, "send")(s.token.Send(ctx, spenderAccount, receiver.address, 40, nil))
	if observed != 40 {
		t.Fatalf("expected hook to observe credited balance 40, got %d", observed)
	}
	if got := s.balance(t, receiver.address); got != 20 {
		t.Fatalf("expected receiver balance 20, got %d", got)
	}
	if got := s.balance(t, otherAccount); got != 20 {
		t.Fatalf("expected forwarded balance 20, got %d", got)
	}
}

func TestTokenLedger_RecursiveHookHitsDepthLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)
	receiver := deployReceiver(t, s, "test.loop")
	receiver.onCall = func(f *Frame, transfer ValueTransfer) error {
		nested, err := f.call(receiver.address)
		if err != nil {
			return err
		}
		return s.token.send(nested, receiver.address, transfer.Amount, nil)
	}
	s.mint(t, spenderAccount, 10)

	_, err := s.token.Send(ctx, spenderAccount, receiver.address, 1, nil)
	expectCode(t, err, LedgerErrorInvalidState, "recursive hook")
	if got := s.balance(t, spenderAccount); got != 10 {
		t.Fatalf("expected rollback, got %d", got)
	}
}

func TestTokenLedger_MintRunsHookBeforeEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)
	receiver := deployReceiver(t, s, "test.receiver")
	receiver.fail = errors.New("mint refused")
	s.grant(t, tokenAddress, minterAccount, RoleMinter)

	_, err := s.token.Mint(ctx, minterAccount, receiver.address, 5)
	if err == nil {
		t.Fatalf("expected mint into refusing hook to fail")
	}
	if got := s.supply(t); got != 0 {
		t.Fatalf("expected supply rollback, got %d", got)
	}
	if len(receiver.seen) != 1 || !IsZeroAccount(receiver.seen[0].From) {
		t.Fatalf("expected mint hook call with zero sender, got %+v", receiver.seen)
	}
}
