package core

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestLedgerErrorMapper_AssignsStableCodes(t *testing.T) {
	mapped := ledgerErrorMapper(stderrors.New("token: caller does not have the minter role"))
	if mapped.TextCode != LedgerErrorUnauthorized {
		t.Fatalf("expected unauthorized text code, got %q", mapped.TextCode)
	}
	if mapped.Code == 0 {
		t.Fatalf("expected http status code on mapped error")
	}

	mapped = ledgerErrorMapper(stderrors.New("token: amount exceeds balance"))
	if mapped.TextCode != LedgerErrorInsufficientFunds {
		t.Fatalf("expected insufficient funds code, got %q", mapped.TextCode)
	}

	mapped = ledgerErrorMapper(stderrors.New("core: component has already been initialized"))
	if mapped.TextCode != LedgerErrorAlreadyInitialized {
		t.Fatalf("expected already initialized code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict category, got %q", mapped.Category)
	}

	mapped = ledgerErrorMapper(stderrors.New("something unexpected"))
	if mapped.TextCode != defaultLedgerTextCode(mapped.Category) {
		t.Fatalf("expected ledger code for unknown errors, got %q", mapped.TextCode)
	}
}

func TestLedgerErrorMapper_KeepsRichErrors(t *testing.T) {
	original := errReplayed("bridge: incoming transfer has already been processed")
	mapped := ledgerErrorMapper(original)
	if mapped.TextCode != LedgerErrorReplayedTransfer {
		t.Fatalf("expected replay code to survive mapping, got %q", mapped.TextCode)
	}
	if !IsCode(original, LedgerErrorReplayedTransfer) {
		t.Fatalf("expected IsCode to match replay code")
	}
	if IsCode(stderrors.New("plain"), LedgerErrorReplayedTransfer) {
		t.Fatalf("expected plain errors not to match")
	}
	if IsCode(nil, LedgerErrorInternal) {
		t.Fatalf("expected nil not to match")
	}
}

func TestHostOperations_MapErrorsToStableLedgerCodes(t *testing.T) {
	ctx := context.Background()
	s := newTestSuite(t)

	_, err := s.token.Mint(ctx, otherAccount, spenderAccount, 1)
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != LedgerErrorUnauthorized || richErr.Code == 0 {
		t.Fatalf("expected unauthorized envelope, got %q/%d", richErr.TextCode, richErr.Code)
	}

	_, err = s.host.Execute(ctx, "plain", ownerAccount, func(*Frame) error {
		return stderrors.New("unexpected failure")
	})
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected plain errors to be mapped, got %T", err)
	}
	if !strings.HasPrefix(richErr.TextCode, "LEDGER_") {
		t.Fatalf("expected ledger text code, got %q", richErr.TextCode)
	}
}
