package core

import (
	"context"
	"sync"
	"testing"
)

var (
	ownerAccount     = DeriveAccount("test.owner")
	minterAccount    = DeriveAccount("test.minter")
	stakerAccount    = DeriveAccount("test.staker")
	seizerAccount    = DeriveAccount("test.seizer")
	collectorAccount = DeriveAccount("test.fee_collector")
	linkerAccount    = DeriveAccount("test.linker")
	managerAccount   = DeriveAccount("test.manager")
	bridgeAccount    = DeriveAccount("test.bridge")
	registrarAccount = DeriveAccount("test.registrar")
	spenderAccount   = DeriveAccount("test.spender")
	treasuryAccount  = DeriveAccount("test.treasury")
	externalAccount  = DeriveAccount("test.external")
	otherAccount     = DeriveAccount("test.other")

	rolesAddress       = DeriveAccount("test.contracts.roles")
	tokenAddress       = DeriveAccount("test.contracts.token")
	bridgeAddress      = DeriveAccount("test.contracts.bridge")
	redeemAddress      = DeriveAccount("test.contracts.redeem")
	campaignAddress    = DeriveAccount("test.contracts.campaign")
	hospitalityAddress = DeriveAccount("test.contracts.hospitality")
	customersAddress   = DeriveAccount("test.contracts.customers")
)

type testSuite struct {
	host        *Host
	store       *MemoryStateStore
	roles       *RoleRegistry
	token       *TokenLedger
	bridge      *BridgeGateway
	redeem      *RedeemGateway
	campaign    *RedeemGateway
	hospitality *RedeemGateway
	customers   *CustomerRegistry
}

// newTestSuite deploys and initializes every component. Role grants are left
// to each test.
func newTestSuite(t *testing.T, opts ...Option) *testSuite {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStateStore()
	host, err := NewHost(DefaultConfig(), append([]Option{WithStateStore(store)}, opts...)...)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	s := &testSuite{host: host, store: store}

	if s.roles, err = NewRoleRegistry(host, rolesAddress); err != nil {
		t.Fatalf("deploy roles: %v", err)
	}
	if s.token, err = NewTokenLedger(host, tokenAddress); err != nil {
		t.Fatalf("deploy token: %v", err)
	}
	if s.bridge, err = NewBridgeGateway(host, bridgeAddress); err != nil {
		t.Fatalf("deploy bridge: %v", err)
	}
	if s.redeem, err = NewRedeemGateway(host, redeemAddress, GenericRedeemVariant()); err != nil {
		t.Fatalf("deploy redeem: %v", err)
	}
	if s.campaign, err = NewRedeemGateway(host, campaignAddress, CampaignRedeemVariant()); err != nil {
		t.Fatalf("deploy campaign redeem: %v", err)
	}
	if s.hospitality, err = NewRedeemGateway(host, hospitalityAddress, HospitalityRedeemVariant()); err != nil {
		t.Fatalf("deploy hospitality redeem: %v", err)
	}
	if s.customers, err = NewCustomerRegistry(host, customersAddress); err != nil {
		t.Fatalf("deploy customers: %v", err)
	}

	mustExecute(t, "initialize roles")(s.roles.Initialize(ctx, ownerAccount, ownerAccount))
	mustExecute(t, "initialize token")(s.token.Initialize(ctx, ownerAccount, rolesAddress))
	mustExecute(t, "initialize bridge")(s.bridge.Initialize(ctx, ownerAccount, tokenAddress, rolesAddress))
	mustExecute(t, "initialize redeem")(s.redeem.Initialize(ctx, ownerAccount, tokenAddress, rolesAddress))
	mustExecute(t, "initialize campaign")(s.campaign.Initialize(ctx, ownerAccount, tokenAddress, rolesAddress))
	mustExecute(t, "initialize hospitality")(s.hospitality.Initialize(ctx, ownerAccount, tokenAddress, rolesAddress))
	mustExecute(t, "initialize customers")(s.customers.Initialize(ctx, ownerAccount, rolesAddress))
	return s
}

func (s *testSuite) grant(t *testing.T, resource Account, account Account, role string) {
	t.Helper()
	mustExecute(t, "grant "+role)(s.roles.AddRole(context.Background(), ownerAccount, resource, account, role))
}

func (s *testSuite) mint(t *testing.T, to Account, amount uint64) {
	t.Helper()
	has, err := s.roles.IsInRole(context.Background(), tokenAddress, minterAccount, RoleMinter)
	if err != nil {
		t.Fatalf("check minter: %v", err)
	}
	if !has {
		s.grant(t, tokenAddress, minterAccount, RoleMinter)
	}
	mustExecute(t, "mint")(s.token.Mint(context.Background(), minterAccount, to, amount))
}

func (s *testSuite) balance(t *testing.T, account Account) uint64 {
	t.Helper()
	balance, err := s.token.BalanceOf(context.Background(), account)
	if err != nil {
		t.Fatalf("balance of %s: %v", account.Hex(), err)
	}
	return balance
}

func (s *testSuite) stake(t *testing.T, account Account) uint64 {
	t.Helper()
	stake, err := s.token.StakeOf(context.Background(), account)
	if err != nil {
		t.Fatalf("stake of %s: %v", account.Hex(), err)
	}
	return stake
}

func (s *testSuite) supply(t *testing.T) uint64 {
	t.Helper()
	supply, err := s.token.TotalSupply(context.Background())
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	return supply
}

func mustExecute(t *testing.T, step string) func(Receipt, error) Receipt {
	t.Helper()
	return func(receipt Receipt, err error) Receipt {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: %v", step, err)
		}
		return receipt
	}
}

func expectCode(t *testing.T, err error, code string, step string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected %s error", step, code)
	}
	if !IsCode(err, code) {
		t.Fatalf("%s: expected %s, got %v", step, code, err)
	}
}

func findEvent(events []LedgerEvent, name string) (LedgerEvent, bool) {
	for _, event := range events {
		if event.Name == name {
			return event, true
		}
	}
	return LedgerEvent{}, false
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// recordingReceiver is a deployable hook that records or rejects transfers
// and can run a callback against the ledger while it holds the frame.
type recordingReceiver struct {
	address Account
	mu      sync.Mutex
	seen    []ValueTransfer
	fail    error
	onCall  func(f *Frame, transfer ValueTransfer) error
}

func (r *recordingReceiver) Address() Account {
	return r.address
}

func (r *recordingReceiver) OnValueReceived(f *Frame, transfer ValueTransfer) error {
	r.mu.Lock()
	r.seen = append(r.seen, transfer)
	r.mu.Unlock()
	if r.onCall != nil {
		if err := r.onCall(f, transfer); err != nil {
			return err
		}
	}
	return r.fail
}
