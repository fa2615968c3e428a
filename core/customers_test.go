package core

import (
	"context"
	"testing"
)

const testCustomerID = "f7c9d576-3ada-4dca-94f3-cae0b201dbfe"

func newCustomerSuite(t *testing.T) *testSuite {
	t.Helper()
	s := newTestSuite(t)
	s.grant(t, customersAddress, registrarAccount, RoleRegistrar)
	return s
}

func TestCustomerRegistry_InitiallyEmpty(t *testing.T) {
	ctx := context.Background()
	s := newCustomerSuite(t)

	_, err := s.customers.Initialize(ctx, ownerAccount, rolesAddress)
	expectCode(t, err, LedgerErrorAlreadyInitialized, "second initialize")

	customer, err := s.customers.GetCustomer(ctx, 0)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.ID != "" || !IsZeroAccount(customer.Address) {
		t.Fatalf("expected zero customer, got %+v", customer)
	}
	count, err := s.customers.CustomersCount(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected no customers, got %d (%v)", count, err)
	}
}

func TestCustomerRegistry_Register(t *testing.T) {
	ctx := context.Background()
	s := newCustomerSuite(t)
	customerAccount := DeriveAccount("test.customer")

	_, err := s.customers.RegisterCustomer(ctx, otherAccount, testCustomerID, customerAccount)
	expectCode(t, err, LedgerErrorUnauthorized, "register by non registrar")

	receipt := mustExecute(t, "register")(s.customers.RegisterCustomer(ctx, registrarAccount, testCustomerID, customerAccount))
	event, ok := findEvent(receipt.Events, EventCustomerRegistered)
	if !ok {
		t.Fatalf("expected CustomerRegistered event")
	}
	if event.Payload["customerIdIndex"] != CustomerIDIndex(testCustomerID) || event.Payload["customerAddress"] != customerAccount.Hex() {
		t.Fatalf("unexpected CustomerRegistered payload: %#v", event.Payload)
	}

	isCustomer, err := s.customers.IsCustomer(ctx, customerAccount)
	if err != nil || !isCustomer {
		t.Fatalf("expected registered customer, got %v (%v)", isCustomer, err)
	}
	address, err := s.customers.AddressOf(ctx, testCustomerID)
	if err != nil || address != customerAccount {
		t.Fatalf("expected address %s, got %s (%v)", customerAccount.Hex(), address.Hex(), err)
	}
	id, err := s.customers.IDOf(ctx, customerAccount)
	if err != nil || id != testCustomerID {
		t.Fatalf("expected id %s, got %q (%v)", testCustomerID, id, err)
	}
	index, found, err := s.customers.IndexOf(ctx, testCustomerID)
	if err != nil || !found || index != 0 {
		t.Fatalf("expected index 0, got %d/%v (%v)", index, found, err)
	}
	count, err := s.customers.CustomersCount(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected one customer, got %d (%v)", count, err)
	}
}

func TestCustomerRegistry_RegisterGuards(t *testing.T) {
	ctx := context.Background()
	s := newCustomerSuite(t)
	customerAccount := DeriveAccount("test.customer")

	_, err := s.customers.RegisterCustomer(ctx, registrarAccount, testCustomerID, ZeroAccount)
	expectCode(t, err, LedgerErrorBadInput, "zero address")
	_, err = s.customers.RegisterCustomer(ctx, registrarAccount, "f7c9d576", customerAccount)
	expectCode(t, err, LedgerErrorBadInput, "short id")
	_, err = s.customers.RegisterCustomer(ctx, registrarAccount, "f7c9d576x3ada-4dca-94f3-cae0b201dbfe", customerAccount)
	expectCode(t, err, LedgerErrorBadInput, "malformed id")

	mustExecute(t, "register")(s.customers.RegisterCustomer(ctx, registrarAccount, testCustomerID, customerAccount))
	_, err = s.customers.RegisterCustomer(ctx, registrarAccount, "a8c9d576-3ada-4dca-94f3-cae0b201dbed", customerAccount)
	expectCode(t, err, LedgerErrorInvalidState, "address taken")
	_, err = s.customers.RegisterCustomer(ctx, registrarAccount, testCustomerID, DeriveAccount("test.customer.other"))
	expectCode(t, err, LedgerErrorInvalidState, "id taken")
	_, err = s.customers.RegisterCustomer(ctx, registrarAccount, "F7C9D576-3ADA-4DCA-94F3-CAE0B201DBFE", DeriveAccount("test.customer.upper"))
	expectCode(t, err, LedgerErrorInvalidState, "id taken in another case")
}

func TestCustomerRegistry_Update(t *testing.T) {
	ctx := context.Background()
	s := newCustomerSuite(t)
	customerAccount := DeriveAccount("test.customer")
	newAccount := DeriveAccount("test.customer.new")
	mustExecute(t, "register")(s.customers.RegisterCustomer(ctx, registrarAccount, testCustomerID, customerAccount))

	_, err := s.customers.UpdateCustomer(ctx, registrarAccount, "a8c9d576-3ada-4dca-94f3-cae0b201dbed", newAccount)
	expectCode(t, err, LedgerErrorInvalidState, "update unknown customer")
	_, err = s.customers.UpdateCustomer(ctx, registrarAccount, testCustomerID, ZeroAccount)
	expectCode(t, err, LedgerErrorBadInput, "update to zero address")
	_, err = s.customers.UpdateCustomer(ctx, registrarAccount, "f7c9d576", newAccount)
	expectCode(t, err, LedgerErrorBadInput, "update invalid id")

	receipt := mustExecute(t, "update")(s.customers.UpdateCustomer(ctx, registrarAccount, testCustomerID, newAccount))
	event, ok := findEvent(receipt.Events, EventCustomerUpdated)
	if !ok {
		t.Fatalf("expected CustomerUpdated event")
	}
	if event.Payload["previousCustomerAddress"] != customerAccount.Hex() || event.Payload["newCustomerAddress"] != newAccount.Hex() {
		t.Fatalf("unexpected CustomerUpdated payload: %#v", event.Payload)
	}

	isCustomer, err := s.customers.IsCustomer(ctx, customerAccount)
	if err != nil || isCustomer {
		t.Fatalf("expected previous address to be released, got %v (%v)", isCustomer, err)
	}
	customer, err := s.customers.GetCustomer(ctx, 0)
	if err != nil || customer.Address != newAccount || customer.ID != testCustomerID {
		t.Fatalf("unexpected customer record %+v (%v)", customer, err)
	}
}
