package command

import (
	"context"
	"fmt"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
)

var (
	testCaller   = core.DeriveAccount("test.caller")
	testAccount  = core.DeriveAccount("test.account")
	testResource = core.DeriveAccount("test.resource")
)

func TestMintCommand_ExecuteDelegatesAndStoresReceipt(t *testing.T) {
	expected := core.Receipt{ID: "tx_1", Operation: "token.mint", Caller: testCaller}
	called := false
	svc := stubTokenService{
		mintFn: func(_ context.Context, caller core.Account, to core.Account, amount uint64) (core.Receipt, error) {
			called = true
			if caller != testCaller || to != testAccount || amount != 1000 {
				t.Fatalf("unexpected mint payload: %s %s %d", caller.Hex(), to.Hex(), amount)
			}
			return expected, nil
		},
	}

	cmd := NewMintCommand(svc)
	collector := gocmd.NewResult[core.Receipt]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, MintMessage{Caller: testCaller, To: testAccount, Amount: 1000}); err != nil {
		t.Fatalf("execute mint: %v", err)
	}
	if !called {
		t.Fatalf("expected mint service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected receipt to be stored")
	}
	if result.ID != expected.ID || result.Operation != expected.Operation {
		t.Fatalf("unexpected receipt: %#v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("decrease stake", func(t *testing.T) {
		called := false
		svc := stubTokenService{
			decreaseStakeFn: func(_ context.Context, _ core.Account, account core.Account, released uint64, burnt uint64) (core.Receipt, error) {
				called = true
				if account != testAccount || released != 20 || burnt != 1 {
					t.Fatalf("unexpected decrease stake payload: %s %d %d", account.Hex(), released, burnt)
				}
				return core.Receipt{ID: "tx_stake"}, nil
			},
		}
		cmd := NewDecreaseStakeCommand(svc)
		err := cmd.Execute(context.Background(), DecreaseStakeMessage{
			Caller:   testCaller,
			Account:  testAccount,
			Released: 20,
			Burnt:    1,
		})
		if err != nil {
			t.Fatalf("execute decrease stake: %v", err)
		}
		if !called {
			t.Fatalf("expected decrease stake invocation")
		}
	})

	t.Run("add role", func(t *testing.T) {
		called := false
		svc := stubRoleService{
			addRoleFn: func(_ context.Context, _ core.Account, resource core.Account, account core.Account, role string) (core.Receipt, error) {
				called = true
				if resource != testResource || account != testAccount || role != core.RoleMinter {
					t.Fatalf("unexpected add role payload: %s %s %q", resource.Hex(), account.Hex(), role)
				}
				return core.Receipt{}, nil
			},
		}
		err := NewAddRoleCommand(svc).Execute(context.Background(), AddRoleMessage{
			Caller:   testCaller,
			Resource: testResource,
			Account:  testAccount,
			Role:     core.RoleMinter,
		})
		if err != nil {
			t.Fatalf("execute add role: %v", err)
		}
		if !called {
			t.Fatalf("expected add role invocation")
		}
	})

	t.Run("transfer from public network", func(t *testing.T) {
		public := core.DeriveAccount("test.public")
		called := false
		svc := stubBridgeService{
			transferFromPublicNetworkFn: func(_ context.Context, _ core.Account, gotPublic core.Account, internal core.Account, id uint64, amount uint64) (core.Receipt, error) {
				called = true
				if gotPublic != public || internal != testAccount || id != 7 || amount != 5 {
					t.Fatalf("unexpected transfer payload: %s %s %d %d", gotPublic.Hex(), internal.Hex(), id, amount)
				}
				return core.Receipt{}, nil
			},
		}
		err := NewTransferFromPublicNetworkCommand(svc).Execute(context.Background(), TransferFromPublicNetworkMessage{
			Caller:           testCaller,
			Public:           public,
			Internal:         testAccount,
			PublicTransferID: 7,
			Amount:           5,
		})
		if err != nil {
			t.Fatalf("execute transfer: %v", err)
		}
		if !called {
			t.Fatalf("expected transfer invocation")
		}
	})

	t.Run("register customer propagates service error", func(t *testing.T) {
		svc := stubCustomerService{
			registerFn: func(context.Context, core.Account, string, core.Account) (core.Receipt, error) {
				return core.Receipt{}, fmt.Errorf("customers: customer id is already taken")
			},
		}
		collector := gocmd.NewResult[core.Receipt]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		err := NewRegisterCustomerCommand(svc).Execute(ctx, RegisterCustomerMessage{
			Caller:     testCaller,
			CustomerID: "f7c9d576-3ada-4dca-94f3-cae0b201dbfe",
			Address:    testAccount,
		})
		if err == nil {
			t.Fatalf("expected service error")
		}
		if _, ok := collector.Load(); ok {
			t.Fatalf("expected no receipt on failure")
		}
	})
}

func TestRedeemCommands_ResolveGateway(t *testing.T) {
	key := core.CampaignKey{CampaignID: "c", InvoiceID: "i", TransferID: "t"}
	var accepted, rejected core.CorrelationKey
	resolver := stubRedeemResolver{gateways: map[string]RedeemService{
		"campaign_redeem": stubRedeemService{
			acceptFn: func(_ context.Context, _ core.Account, key core.CorrelationKey) (core.Receipt, error) {
				accepted = key
				return core.Receipt{}, nil
			},
			rejectFn: func(_ context.Context, _ core.Account, key core.CorrelationKey) (core.Receipt, error) {
				rejected = key
				return core.Receipt{}, nil
			},
		},
	}}

	if err := NewAcceptTransferCommand(resolver).Execute(context.Background(), AcceptTransferMessage{
		Caller:  testCaller,
		Gateway: "campaign_redeem",
		Key:     key,
	}); err != nil {
		t.Fatalf("execute accept: %v", err)
	}
	if accepted != key {
		t.Fatalf("expected accepted key %+v, got %+v", key, accepted)
	}
	if err := NewRejectTransferCommand(resolver).Execute(context.Background(), RejectTransferMessage{
		Caller:  testCaller,
		Gateway: "campaign_redeem",
		Key:     key,
	}); err != nil {
		t.Fatalf("execute reject: %v", err)
	}
	if rejected != key {
		t.Fatalf("expected rejected key %+v, got %+v", key, rejected)
	}

	err := NewAcceptTransferCommand(resolver).Execute(context.Background(), AcceptTransferMessage{
		Caller:  testCaller,
		Gateway: "missing",
		Key:     key,
	})
	if err == nil {
		t.Fatalf("expected unknown gateway error")
	}
}

func TestMessages_Validate(t *testing.T) {
	if err := (AddRoleMessage{Caller: testCaller, Resource: testResource, Account: testAccount, Role: "Custom"}).Validate(); err == nil {
		t.Fatalf("expected unsupported role to fail validation")
	}
	if err := (AddRoleMessage{Caller: testCaller, Resource: testResource, Account: testAccount, Role: core.RoleManager}).Validate(); err != nil {
		t.Fatalf("expected supported role to validate: %v", err)
	}
	if err := (RegisterCustomerMessage{Caller: testCaller, CustomerID: "not-a-uuid", Address: testAccount}).Validate(); err == nil {
		t.Fatalf("expected malformed customer id to fail validation")
	}
	if err := (AcceptTransferMessage{Caller: testCaller, Gateway: "redeem", Key: core.OpaqueKey{}}).Validate(); err == nil {
		t.Fatalf("expected empty key to fail validation")
	}
	if err := (AcceptTransferMessage{Caller: testCaller, Gateway: "redeem", Key: core.OpaqueKey{0x01}}).Validate(); err != nil {
		t.Fatalf("expected opaque key to validate: %v", err)
	}
	if err := (BurnMessage{Caller: testCaller}).Validate(); err != nil {
		t.Fatalf("expected burn of zero to validate: %v", err)
	}
}

type stubRoleService struct {
	addRoleFn func(ctx context.Context, caller core.Account, resource core.Account, account core.Account, role string) (core.Receipt, error)
}

func (s stubRoleService) AddRole(ctx context.Context, caller core.Account, resource core.Account, account core.Account, role string) (core.Receipt, error) {
	if s.addRoleFn != nil {
		return s.addRoleFn(ctx, caller, resource, account, role)
	}
	return core.Receipt{}, nil
}

func (stubRoleService) RemoveRole(context.Context, core.Account, core.Account, core.Account, string) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubRoleService) RenounceRole(context.Context, core.Account, core.Account, string) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubRoleService) RenounceOwnership(context.Context, core.Account) (core.Receipt, error) {
	return core.Receipt{}, nil
}

type stubTokenService struct {
	mintFn          func(ctx context.Context, caller core.Account, to core.Account, amount uint64) (core.Receipt, error)
	decreaseStakeFn func(ctx context.Context, caller core.Account, account core.Account, released uint64, burnt uint64) (core.Receipt, error)
}

func (s stubTokenService) Mint(ctx context.Context, caller core.Account, to core.Account, amount uint64) (core.Receipt, error) {
	if s.mintFn != nil {
		return s.mintFn(ctx, caller, to, amount)
	}
	return core.Receipt{}, nil
}

func (stubTokenService) Burn(context.Context, core.Account, uint64, []byte) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubTokenService) Send(context.Context, core.Account, core.Account, uint64, []byte) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubTokenService) SeizeFrom(context.Context, core.Account, core.Account, uint64, string) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubTokenService) CollectFee(context.Context, core.Account, core.Account, core.Account, uint64, string) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubTokenService) IncreaseStake(context.Context, core.Account, core.Account, uint64) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (s stubTokenService) DecreaseStake(ctx context.Context, caller core.Account, account core.Account, released uint64, burnt uint64) (core.Receipt, error) {
	if s.decreaseStakeFn != nil {
		return s.decreaseStakeFn(ctx, caller, account, released, burnt)
	}
	return core.Receipt{}, nil
}

type stubBridgeService struct {
	transferFromPublicNetworkFn func(ctx context.Context, caller core.Account, public core.Account, internal core.Account, id uint64, amount uint64) (core.Receipt, error)
}

func (stubBridgeService) SetTreasuryAccount(context.Context, core.Account, core.Account) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubBridgeService) SetTransferToPublicNetworkFee(context.Context, core.Account, uint64) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubBridgeService) LinkPublicAccount(context.Context, core.Account, core.Account, core.Account, uint64) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (stubBridgeService) UnlinkPublicAccount(context.Context, core.Account, core.Account) (core.Receipt, error) {
	return core.Receipt{}, nil
}

func (s stubBridgeService) TransferFromPublicNetwork(
	ctx context.Context,
	caller core.Account,
	public core.Account,
	internal core.Account,
	id uint64,
	amount uint64,
) (core.Receipt, error) {
	if s.transferFromPublicNetworkFn != nil {
		return s.transferFromPublicNetworkFn(ctx, caller, public, internal, id, amount)
	}
	return core.Receipt{}, nil
}

type stubRedeemService struct {
	acceptFn func(ctx context.Context, caller core.Account, key core.CorrelationKey) (core.Receipt, error)
	rejectFn func(ctx context.Context, caller core.Account, key core.CorrelationKey) (core.Receipt, error)
}

func (s stubRedeemService) AcceptTransfer(ctx context.Context, caller core.Account, key core.CorrelationKey) (core.Receipt, error) {
	return s.acceptFn(ctx, caller, key)
}

func (s stubRedeemService) RejectTransfer(ctx context.Context, caller core.Account, key core.CorrelationKey) (core.Receipt, error) {
	return s.rejectFn(ctx, caller, key)
}

type stubRedeemResolver struct {
	gateways map[string]RedeemService
}

func (r stubRedeemResolver) RedeemGateway(name string) (RedeemService, error) {
	gateway, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unknown redeem gateway %q", name)
	}
	return gateway, nil
}

type stubCustomerService struct {
	registerFn func(ctx context.Context, caller core.Account, customerID string, address core.Account) (core.Receipt, error)
}

func (s stubCustomerService) RegisterCustomer(ctx context.Context, caller core.Account, customerID string, address core.Account) (core.Receipt, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, caller, customerID, address)
	}
	return core.Receipt{}, nil
}

func (stubCustomerService) UpdateCustomer(context.Context, core.Account, string, core.Account) (core.Receipt, error) {
	return core.Receipt{}, nil
}
