package core

import (
	"context"
	"slices"
)

const (
	RoleOwner        = "Owner"
	RoleBridge       = "Bridge"
	RoleFeeCollector = "FeeCollector"
	RoleLinker       = "Linker"
	RoleManager      = "Manager"
	RoleMinter       = "Minter"
	RoleRegistrar    = "Registrar"
	RoleSeizer       = "Seizer"
	RoleStaker       = "Staker"

	MaxRoleNameLength = 32
)

// SupportedRoles lists the role names components check for.
var SupportedRoles = []string{
	RoleBridge,
	RoleFeeCollector,
	RoleLinker,
	RoleManager,
	RoleMinter,
	RoleRegistrar,
	RoleSeizer,
	RoleStaker,
}

func IsSupportedRole(role string) bool {
	return slices.Contains(SupportedRoles, role)
}

func validRoleName(role string) bool {
	return len(role) > 0 && len(role) <= MaxRoleNameLength
}

// RoleRegistry stores (resource, account, role) memberships. Only the owner
// may grant or revoke; the owner itself is the member of the reserved
// (registry, Owner) pair and can never give that up.
type RoleRegistry struct {
	host    *Host
	address Account
}

func NewRoleRegistry(host *Host, address Account) (*RoleRegistry, error) {
	registry := &RoleRegistry{host: host, address: address}
	if err := host.Deploy(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *RoleRegistry) Address() Account {
	return r.address
}

func (r *RoleRegistry) Initialize(ctx context.Context, caller Account, owner Account) (Receipt, error) {
	return r.host.Execute(ctx, "roles.initialize", caller, func(f *Frame) error {
		if err := initializeOnce(f, r.address); err != nil {
			return err
		}
		if IsZeroAccount(owner) {
			return errBadInput("roles: owner is the zero address")
		}
		if err := f.storeAccount(stateKey(r.address, "owner"), owner); err != nil {
			return err
		}
		return r.grant(f, r.address, owner, RoleOwner)
	})
}

func (r *RoleRegistry) AddRole(ctx context.Context, caller Account, resource Account, account Account, role string) (Receipt, error) {
	return r.host.Execute(ctx, "roles.add_role", caller, func(f *Frame) error {
		if err := r.requireOwner(f); err != nil {
			return err
		}
		if err := r.validateAssignment(resource, account, role); err != nil {
			return err
		}
		has, err := r.isInRole(f, resource, account, role)
		if err != nil {
			return err
		}
		if has {
			return errInvalidState("roles: account already has role")
		}
		return r.grant(f, resource, account, role)
	})
}

func (r *RoleRegistry) RemoveRole(ctx context.Context, caller Account, resource Account, account Account, role string) (Receipt, error) {
	return r.host.Execute(ctx, "roles.remove_role", caller, func(f *Frame) error {
		if err := r.requireOwner(f); err != nil {
			return err
		}
		if err := r.validateAssignment(resource, account, role); err != nil {
			return err
		}
		return r.revoke(f, resource, account, role)
	})
}

// RenounceRole drops the caller's own membership.
func (r *RoleRegistry) RenounceRole(ctx context.Context, caller Account, resource Account, role string) (Receipt, error) {
	return r.host.Execute(ctx, "roles.renounce_role", caller, func(f *Frame) error {
		if err := requireInitialized(f, r.address, "roles"); err != nil {
			return err
		}
		if resource == r.address && role == RoleOwner {
			return errInvalidState("roles: ownership can not be renounced")
		}
		if err := r.validateAssignment(resource, f.Caller(), role); err != nil {
			return err
		}
		return r.revoke(f, resource, f.Caller(), role)
	})
}

func (r *RoleRegistry) RenounceOwnership(ctx context.Context, caller Account) (Receipt, error) {
	return r.host.Execute(ctx, "roles.renounce_ownership", caller, func(*Frame) error {
		return errInvalidState("roles: ownership can not be renounced")
	})
}

func (r *RoleRegistry) IsInRole(ctx context.Context, resource Account, account Account, role string) (bool, error) {
	var out bool
	err := r.host.View(ctx, func(f *Frame) error {
		if IsZeroAccount(resource) {
			return errBadInput("roles: resource is the zero address")
		}
		if !validRoleName(role) {
			return errBadInput("roles: role is invalid")
		}
		var err error
		out, err = r.isInRole(f, resource, account, role)
		return err
	})
	return out, err
}

func (r *RoleRegistry) IsOwner(ctx context.Context, account Account) (bool, error) {
	var out bool
	err := r.host.View(ctx, func(f *Frame) error {
		if IsZeroAccount(account) {
			return errBadInput("roles: account is the zero address")
		}
		var err error
		out, err = r.isOwner(f, account)
		return err
	})
	return out, err
}

func (r *RoleRegistry) Owner(ctx context.Context) (Account, error) {
	var out Account
	err := r.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = f.loadAccount(stateKey(r.address, "owner"))
		return err
	})
	return out, err
}

func (r *RoleRegistry) Version(ctx context.Context) (uint64, error) {
	var out uint64
	err := r.host.View(ctx, func(f *Frame) error {
		var err error
		out, err = readVersion(f, r.address)
		return err
	})
	return out, err
}

func (r *RoleRegistry) requireOwner(f *Frame) error {
	if err := requireInitialized(f, r.address, "roles"); err != nil {
		return err
	}
	owner, err := r.isOwner(f, f.Caller())
	if err != nil {
		return err
	}
	if !owner {
		return errUnauthorized("roles: caller is not the owner")
	}
	return nil
}

func (r *RoleRegistry) validateAssignment(resource Account, account Account, role string) error {
	if IsZeroAccount(resource) {
		return errBadInput("roles: resource is the zero address")
	}
	if !validRoleName(role) {
		return errBadInput("roles: role is invalid")
	}
	if IsZeroAccount(account) {
		return errBadInput("roles: account is the zero address")
	}
	if resource == r.address && role == RoleOwner {
		return errInvalidState("roles: owner role is reserved")
	}
	return nil
}

func (r *RoleRegistry) isOwner(f *Frame, account Account) (bool, error) {
	if IsZeroAccount(account) {
		return false, nil
	}
	owner, err := f.loadAccount(stateKey(r.address, "owner"))
	if err != nil {
		return false, err
	}
	return owner == account, nil
}

func (r *RoleRegistry) isInRole(f *Frame, resource Account, account Account, role string) (bool, error) {
	return f.loadFlag(r.membershipKey(resource, account, role))
}

func (r *RoleRegistry) grant(f *Frame, resource Account, account Account, role string) error {
	if err := f.storeFlag(r.membershipKey(resource, account, role), true); err != nil {
		return err
	}
	f.emit(r.address, EventRoleAdded, map[string]any{
		"resource": resource.Hex(),
		"account":  account.Hex(),
		"role":     role,
	})
	return nil
}

func (r *RoleRegistry) revoke(f *Frame, resource Account, account Account, role string) error {
	has, err := r.isInRole(f, resource, account, role)
	if err != nil {
		return err
	}
	if !has {
		return errInvalidState("roles: account does not have role")
	}
	f.remove(r.membershipKey(resource, account, role))
	f.emit(r.address, EventRoleRemoved, map[string]any{
		"resource": resource.Hex(),
		"account":  account.Hex(),
		"role":     role,
	})
	return nil
}

func (r *RoleRegistry) membershipKey(resource Account, account Account, role string) string {
	return stateKey(r.address, "member", accountPart(resource), accountPart(account), namePart(role))
}

// requireRole fails unless the frame caller holds role on resource in the
// registry at rolesAddress. RoleOwner checks registry ownership instead.
func requireRole(f *Frame, rolesAddress Account, resource Account, role string, component string) error {
	registry, err := resolveContract[*RoleRegistry](f, rolesAddress, component, "role registry")
	if err != nil {
		return err
	}
	if role == RoleOwner {
		owner, err := registry.isOwner(f, f.Caller())
		if err != nil {
			return err
		}
		if !owner {
			return errUnauthorized("%s: caller is not the Owner", component)
		}
		return nil
	}
	has, err := registry.isInRole(f, resource, f.Caller(), role)
	if err != nil {
		return err
	}
	if !has {
		return errUnauthorized("%s: caller does not have the %s role", component, role)
	}
	return nil
}
