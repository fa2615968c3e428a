package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	LedgerErrorAlreadyInitialized = "LEDGER_ALREADY_INITIALIZED"
	LedgerErrorNotInitialized     = "LEDGER_NOT_INITIALIZED"
	LedgerErrorUnauthorized       = "LEDGER_UNAUTHORIZED"
	LedgerErrorBadInput           = "LEDGER_BAD_INPUT"
	LedgerErrorInvalidState       = "LEDGER_INVALID_STATE"
	LedgerErrorInsufficientFunds  = "LEDGER_INSUFFICIENT_FUNDS"
	LedgerErrorReplayedTransfer   = "LEDGER_REPLAYED_TRANSFER"
	LedgerErrorInternal           = "LEDGER_INTERNAL_ERROR"
)

// IsCode reports whether err carries the given ledger text code.
func IsCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func errAlreadyInitialized() error {
	return newLedgerError(
		"core: component has already been initialized",
		goerrors.CategoryConflict,
		LedgerErrorAlreadyInitialized,
	)
}

func errNotInitialized(component string) error {
	return newLedgerError(component+": component is not initialized", goerrors.CategoryOperation, LedgerErrorNotInitialized)
}

func errUnauthorized(format string, args ...any) error {
	return newLedgerError(fmt.Sprintf(format, args...), goerrors.CategoryAuthz, LedgerErrorUnauthorized)
}

func errBadInput(format string, args ...any) error {
	return newLedgerError(fmt.Sprintf(format, args...), goerrors.CategoryBadInput, LedgerErrorBadInput)
}

func errInvalidState(format string, args ...any) error {
	return newLedgerError(fmt.Sprintf(format, args...), goerrors.CategoryConflict, LedgerErrorInvalidState)
}

func errInsufficientFunds(format string, args ...any) error {
	return newLedgerError(fmt.Sprintf(format, args...), goerrors.CategoryOperation, LedgerErrorInsufficientFunds)
}

func errReplayed(format string, args ...any) error {
	return newLedgerError(fmt.Sprintf(format, args...), goerrors.CategoryConflict, LedgerErrorReplayedTransfer)
}

func errInternal(err error, message string) error {
	return ensureLedgerErrorEnvelope(
		goerrors.Wrap(err, goerrors.CategoryInternal, message).
			WithTextCode(LedgerErrorInternal),
	)
}

func ledgerErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureLedgerErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "already been initialized"):
		return newLedgerError(err.Error(), goerrors.CategoryConflict, LedgerErrorAlreadyInitialized)
	case strings.Contains(msg, "not initialized"):
		return newLedgerError(err.Error(), goerrors.CategoryOperation, LedgerErrorNotInitialized)
	case strings.Contains(msg, "does not have the"), strings.Contains(msg, "caller is not"):
		return newLedgerError(err.Error(), goerrors.CategoryAuthz, LedgerErrorUnauthorized)
	case strings.Contains(msg, "exceeds"):
		return newLedgerError(err.Error(), goerrors.CategoryOperation, LedgerErrorInsufficientFunds)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "zero address"):
		return newLedgerError(err.Error(), goerrors.CategoryBadInput, LedgerErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	if mapped == nil {
		return newLedgerError(err.Error(), goerrors.CategoryInternal, LedgerErrorInternal)
	}
	if !strings.HasPrefix(mapped.TextCode, "LEDGER_") {
		mapped.TextCode = defaultLedgerTextCode(mapped.Category)
	}
	return ensureLedgerErrorEnvelope(mapped)
}

func newLedgerError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureLedgerErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureLedgerErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = ledgerHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultLedgerTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultLedgerTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return LedgerErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return LedgerErrorUnauthorized
	case goerrors.CategoryConflict:
		return LedgerErrorInvalidState
	case goerrors.CategoryOperation:
		return LedgerErrorInsufficientFunds
	default:
		return LedgerErrorInternal
	}
}

func ledgerHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
