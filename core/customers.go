package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const CustomerIDLength = 36

type Customer struct {
	ID      string
	Address Account
}

type customerRecord struct {
	ID      string
	Address Account
}

// CustomerRegistry keeps a one to one mapping between customer ids and ledger
// accounts. Registrations are append only; updates move an id to a new
// account.
type CustomerRegistry struct {
	host    *Host
	address Account
}

func NewCustomerRegistry(host *Host, address Account) (*CustomerRegistry, error) {
	registry := &CustomerRegistry{host: host, address: address}
	if err := host.Deploy(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *CustomerRegistry) Address() Account {
	return r.address
}

func (r *CustomerRegistry) Initialize(ctx context.Context, caller Account, roles Account) (Receipt, error) {
	return r.host.Execute(ctx, "customers.initialize", caller, func(f *Frame) error {
		if err := initializeOnce(f, r.address); err != nil {
			return err
		}
		if IsZeroAccount(roles) {
			return errBadInput("customers: role registry is the zero address")
		}
		if _, err := resolveContract[*RoleRegistry](f, roles, "customers", "role registry"); err != nil {
			return err
		}
		return f.storeAccount(stateKey(r.address, "roles"), roles)
	})
}

func (r *CustomerRegistry) RegisterCustomer(ctx context.Context, caller Account, customerID string, account Account) (Receipt, error) {
	return r.host.Execute(ctx, "customers.register", caller, func(f *Frame) error {
		if err := r.requireRegistrar(f); err != nil {
			return err
		}
		id, err := NormalizeCustomerID(customerID)
		if err != nil {
			return err
		}
		if IsZeroAccount(account) {
			return errBadInput("customers: customer address is the zero address")
		}
		if err := r.requireFreeAddress(f, account); err != nil {
			return err
		}
		position, err := f.loadUint(r.positionKey(id))
		if err != nil {
			return err
		}
		if position != 0 {
			return errInvalidState("customers: customer id is already taken")
		}
		index, err := f.loadUint(stateKey(r.address, "count"))
		if err != nil {
			return err
		}
		next, err := checkedAdd(index, 1, "customers: customer count overflow")
		if err != nil {
			return err
		}
		if err := f.store(r.recordKey(index), customerRecord{ID: id, Address: account}); err != nil {
			return err
		}
		if err := f.storeUint(r.positionKey(id), next); err != nil {
			return err
		}
		if err := f.storeString(r.idKey(account), id); err != nil {
			return err
		}
		if err := f.storeUint(stateKey(r.address, "count"), next); err != nil {
			return err
		}
		f.emit(r.address, EventCustomerRegistered, map[string]any{
			"customerId":      id,
			"customerIdIndex": CustomerIDIndex(id),
			"customerAddress": account.Hex(),
		})
		return nil
	})
}

func (r *CustomerRegistry) UpdateCustomer(ctx context.Context, caller Account, customerID string, account Account) (Receipt, error) {
	return r.host.Execute(ctx, "customers.update", caller, func(f *Frame) error {
		if err := r.requireRegistrar(f); err != nil {
			return err
		}
		id, err := NormalizeCustomerID(customerID)
		if err != nil {
			return err
		}
		if IsZeroAccount(account) {
			return errBadInput("customers: new (updated) customer address is the zero address")
		}
		position, err := f.loadUint(r.positionKey(id))
		if err != nil {
			return err
		}
		if position == 0 {
			return errInvalidState("customers: customer is not registered")
		}
		var record customerRecord
		if _, err := f.load(r.recordKey(position-1), &record); err != nil {
			return err
		}
		if record.Address == account {
			return errInvalidState("customers: customer address is already taken")
		}
		if err := r.requireFreeAddress(f, account); err != nil {
			return err
		}
		previous := record.Address
		record.Address = account
		if err := f.store(r.recordKey(position-1), record); err != nil {
			return err
		}
		f.remove(r.idKey(previous))
		if err := f.storeString(r.idKey(account), id); err != nil {
			return err
		}
		f.emit(r.address, EventCustomerUpdated, map[string]any{
			"customerId":              id,
			"customerIdIndex":         CustomerIDIndex(id),
			"previousCustomerAddress": previous.Hex(),
			"newCustomerAddress":      account.Hex(),
		})
		return nil
	})
}

func (r *CustomerRegistry) IsCustomer(ctx context.Context, account Account) (bool, error) {
	id, err := r.IDOf(ctx, account)
	return id != "", err
}

func (r *CustomerRegistry) IDOf(ctx context.Context, account Account) (string, error) {
	var out string
	err := r.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadString(r.idKey(account))
		return err
	})
	return out, err
}

func (r *CustomerRegistry) AddressOf(ctx context.Context, customerID string) (Account, error) {
	customer, _, err := r.find(ctx, customerID)
	return customer.Address, err
}

// IndexOf reports the registration index of customerID. found is false when
// the id is not registered.
func (r *CustomerRegistry) IndexOf(ctx context.Context, customerID string) (uint64, bool, error) {
	var (
		index uint64
		found bool
	)
	err := r.host.View(ctx, func(f *Frame) error {
		id, err := NormalizeCustomerID(customerID)
		if err != nil {
			return err
		}
		position, err := f.loadUint(r.positionKey(id))
		if err != nil || position == 0 {
			return err
		}
		index, found = position-1, true
		return nil
	})
	return index, found, err
}

func (r *CustomerRegistry) GetCustomer(ctx context.Context, index uint64) (Customer, error) {
	var out Customer
	err := r.host.View(ctx, func(f *Frame) error {
		var record customerRecord
		if _, err := f.load(r.recordKey(index), &record); err != nil {
			return err
		}
		out = Customer(record)
		return nil
	})
	return out, err
}

func (r *CustomerRegistry) CustomersCount(ctx context.Context) (uint64, error) {
	var out uint64
	err := r.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadUint(stateKey(r.address, "count"))
		return err
	})
	return out, err
}

func (r *CustomerRegistry) Version(ctx context.Context) (uint64, error) {
	var out uint64
	err := r.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = readVersion(f, r.address)
		return err
	})
	return out, err
}

func (r *CustomerRegistry) find(ctx context.Context, customerID string) (Customer, bool, error) {
	var (
		out   Customer
		found bool
	)
	err := r.host.View(ctx, func(f *Frame) error {
		id, err := NormalizeCustomerID(customerID)
		if err != nil {
			return err
		}
		position, err := f.loadUint(r.positionKey(id))
		if err != nil || position == 0 {
			return err
		}
		var record customerRecord
		if _, err := f.load(r.recordKey(position-1), &record); err != nil {
			return err
		}
		out, found = Customer(record), true
		return nil
	})
	return out, found, err
}

func (r *CustomerRegistry) requireRegistrar(f *Frame) error {
	if err := requireInitialized(f, r.address, "customers"); err != nil {
		return err
	}
	roles, err := f.loadAccount(stateKey(r.address, "roles"))
	if err != nil {
		return err
	}
	return requireRole(f, roles, r.address, RoleRegistrar, "customers")
}

func (r *CustomerRegistry) requireFreeAddress(f *Frame, account Account) error {
	taken, err := f.loadString(r.idKey(account))
	if err != nil {
		return err
	}
	if taken != "" {
		return errInvalidState("customers: customer address is already taken")
	}
	return nil
}

func (r *CustomerRegistry) recordKey(index uint64) string {
	return stateKey(r.address, "customer", strconv.FormatUint(index, 10))
}

func (r *CustomerRegistry) positionKey(id string) string {
	return stateKey(r.address, "position", id)
}

func (r *CustomerRegistry) idKey(account Account) string {
	return stateKey(r.address, "id", accountPart(account))
}

// NormalizeCustomerID returns the canonical lower case form of a 36 character
// UUID customer id.
func NormalizeCustomerID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != CustomerIDLength {
		return "", errBadInput("customers: customer id is invalid")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", errBadInput("customers: customer id is invalid")
	}
	return parsed.String(), nil
}

// CustomerIDIndex is the keccak256 digest used to index customer events.
func CustomerIDIndex(id string) string {
	return crypto.Keccak256Hash([]byte(id)).Hex()
}
