package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	ledgercommand "github.com/goliatone/go-ledger/command"
	"github.com/goliatone/go-ledger/core"
	ledgerquery "github.com/goliatone/go-ledger/query"
)

// Addresses fixes where each component of a suite is deployed.
type Addresses struct {
	Roles             Account
	Token             Account
	Bridge            Account
	Redeem            Account
	CampaignRedeem    Account
	HospitalityRedeem Account
	Customers         Account
}

// DefaultAddresses derives deterministic addresses from the ledger namespace.
func DefaultAddresses() Addresses {
	return Addresses{
		Roles:             core.DeriveAccount("ledger.contracts.roles"),
		Token:             core.DeriveAccount("ledger.contracts.token"),
		Bridge:            core.DeriveAccount("ledger.contracts.bridge"),
		Redeem:            core.DeriveAccount("ledger.contracts.redeem"),
		CampaignRedeem:    core.DeriveAccount("ledger.contracts.campaign_redeem"),
		HospitalityRedeem: core.DeriveAccount("ledger.contracts.hospitality_redeem"),
		Customers:         core.DeriveAccount("ledger.contracts.customers"),
	}
}

// Suite is every ledger component deployed on one host.
type Suite struct {
	Host      *Host
	Owner     Account
	Addresses Addresses

	Roles             *RoleRegistry
	Token             *TokenLedger
	Bridge            *BridgeGateway
	Redeem            *RedeemGateway
	CampaignRedeem    *RedeemGateway
	HospitalityRedeem *RedeemGateway
	Customers         *CustomerRegistry
}

// Deploy constructs and initializes the whole suite with owner as the role
// registry owner, and grants the bridge the FeeCollector role on the token
// so account linking fees can be collected.
func Deploy(ctx context.Context, host *Host, owner Account, addresses Addresses) (*Suite, error) {
	if host == nil {
		return nil, fmt.Errorf("ledger: host is required")
	}
	if core.IsZeroAccount(owner) {
		return nil, fmt.Errorf("ledger: owner account is required")
	}
	suite := &Suite{Host: host, Owner: owner, Addresses: addresses}

	var err error
	if suite.Roles, err = core.NewRoleRegistry(host, addresses.Roles); err != nil {
		return nil, fmt.Errorf("ledger: deploy roles: %w", err)
	}
	if suite.Token, err = core.NewTokenLedger(host, addresses.Token); err != nil {
		return nil, fmt.Errorf("ledger: deploy token: %w", err)
	}
	if suite.Bridge, err = core.NewBridgeGateway(host, addresses.Bridge); err != nil {
		return nil, fmt.Errorf("ledger: deploy bridge: %w", err)
	}
	if suite.Redeem, err = core.NewRedeemGateway(host, addresses.Redeem, core.GenericRedeemVariant()); err != nil {
		return nil, fmt.Errorf("ledger: deploy redeem: %w", err)
	}
	if suite.CampaignRedeem, err = core.NewRedeemGateway(host, addresses.CampaignRedeem, core.CampaignRedeemVariant()); err != nil {
		return nil, fmt.Errorf("ledger: deploy campaign redeem: %w", err)
	}
	if suite.HospitalityRedeem, err = core.NewRedeemGateway(host, addresses.HospitalityRedeem, core.HospitalityRedeemVariant()); err != nil {
		return nil, fmt.Errorf("ledger: deploy hospitality redeem: %w", err)
	}
	if suite.Customers, err = core.NewCustomerRegistry(host, addresses.Customers); err != nil {
		return nil, fmt.Errorf("ledger: deploy customers: %w", err)
	}

	steps := []struct {
		name string
		run  func() (Receipt, error)
	}{
		{"initialize roles", func() (Receipt, error) { return suite.Roles.Initialize(ctx, owner, owner) }},
		{"initialize token", func() (Receipt, error) { return suite.Token.Initialize(ctx, owner, addresses.Roles) }},
		{"initialize bridge", func() (Receipt, error) {
			return suite.Bridge.Initialize(ctx, owner, addresses.Token, addresses.Roles)
		}},
		{"initialize redeem", func() (Receipt, error) {
			return suite.Redeem.Initialize(ctx, owner, addresses.Token, addresses.Roles)
		}},
		{"initialize campaign redeem", func() (Receipt, error) {
			return suite.CampaignRedeem.Initialize(ctx, owner, addresses.Token, addresses.Roles)
		}},
		{"initialize hospitality redeem", func() (Receipt, error) {
			return suite.HospitalityRedeem.Initialize(ctx, owner, addresses.Token, addresses.Roles)
		}},
		{"initialize customers", func() (Receipt, error) {
			return suite.Customers.Initialize(ctx, owner, addresses.Roles)
		}},
		{"grant bridge fee collector", func() (Receipt, error) {
			return suite.Roles.AddRole(ctx, owner, addresses.Token, addresses.Bridge, core.RoleFeeCollector)
		}},
	}
	for _, step := range steps {
		if _, err := step.run(); err != nil {
			return nil, fmt.Errorf("ledger: %s: %w", step.name, err)
		}
	}
	return suite, nil
}

// Gateway resolves a redeem gateway by its variant name.
func (s *Suite) Gateway(name string) (*RedeemGateway, error) {
	if s == nil {
		return nil, unknownGatewayError(name)
	}
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, gateway := range []*RedeemGateway{s.Redeem, s.CampaignRedeem, s.HospitalityRedeem} {
		if gateway != nil && gateway.Variant().Name == normalized {
			return gateway, nil
		}
	}
	return nil, unknownGatewayError(name)
}

func (s *Suite) RedeemGateway(name string) (ledgercommand.RedeemService, error) {
	gateway, err := s.Gateway(name)
	if err != nil {
		return nil, err
	}
	return gateway, nil
}

func (s *Suite) RedeemReader(name string) (ledgerquery.RedeemReader, error) {
	gateway, err := s.Gateway(name)
	if err != nil {
		return nil, err
	}
	return gateway, nil
}

func unknownGatewayError(name string) error {
	return goerrors.New(fmt.Sprintf("ledger: unknown redeem gateway %q", name), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.LedgerErrorBadInput)
}

var (
	_ ledgercommand.RedeemResolver     = (*Suite)(nil)
	_ ledgerquery.RedeemReaderResolver = (*Suite)(nil)
)
