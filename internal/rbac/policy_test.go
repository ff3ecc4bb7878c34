package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authorizerFor(role Role) *Authorizer {
	holder := NewPrincipalHolder()
	holder.Set(Principal{ID: 1, Username: "u", Role: role, IsActive: true})
	return NewAuthorizer(DefaultPolicy(), holder)
}

func TestAdminCanAccessEveryModule(t *testing.T) {
	authz := authorizerFor(RoleAdmin)
	for _, m := range Modules() {
		assert.True(t, authz.CanAccess(m), m)
		assert.True(t, authz.CanAdd(m), m)
		assert.Equal(t, "Full access (CRUD)", authz.PermissionDescription(m), m)
	}
}

func TestEditAndDeleteFollowAdd(t *testing.T) {
	for _, role := range append(Roles(), RoleUnknown, Role("JANITOR")) {
		authz := authorizerFor(role)
		for _, m := range Modules() {
			add := authz.CanAdd(m)
			assert.Equal(t, add, authz.CanEdit(m), "%s %s", role, m)
			assert.Equal(t, add, authz.CanDelete(m), "%s %s", role, m)
		}
	}
}

func TestStaffAccess(t *testing.T) {
	authz := authorizerFor(RoleStaff)
	assert.False(t, authz.CanAccess(ModuleInvoices))
	assert.False(t, authz.CanAccess(ModuleReports))
	assert.True(t, authz.CanAccess(ModuleApartments))
	assert.True(t, authz.CanAccess(ModuleFloors))

	for _, m := range []Module{ModuleApartments, ModuleResidents, ModuleContracts} {
		assert.True(t, authz.CanAdd(m), m)
	}
	for _, m := range []Module{ModuleDashboard, ModuleBuildings, ModuleFloors, ModuleServices, ModuleInvoices, ModuleReports} {
		assert.False(t, authz.CanAdd(m), m)
	}
}

func TestAccountantAccess(t *testing.T) {
	authz := authorizerFor(RoleAccountant)
	assert.False(t, authz.CanAccess(ModuleFloors))
	assert.True(t, authz.CanAdd(ModuleInvoices))
	assert.True(t, authz.CanAdd(ModuleServices))
	assert.False(t, authz.CanAdd(ModuleApartments))
	assert.True(t, authz.CanView(ModuleApartments))
}

func TestNoSessionDeniesEverything(t *testing.T) {
	authz := NewAuthorizer(DefaultPolicy(), NewPrincipalHolder())
	for _, m := range Modules() {
		for _, a := range Actions() {
			assert.False(t, authz.Check(m, a).Allowed, "%s %s", m, a)
		}
		assert.False(t, authz.CanAccess(m))
		assert.False(t, authz.CanAdd(m))
		assert.Equal(t, "No access", authz.PermissionDescription(m))
	}
	assert.False(t, authz.IsAdmin())
	assert.Equal(t, "Not logged in\n", authz.PermissionSummary())
}

func TestUnknownRoleAndModuleAreDenied(t *testing.T) {
	authz := authorizerFor(Role("JANITOR"))
	for _, m := range Modules() {
		assert.False(t, authz.CanAccess(m), m)
	}

	admin := authorizerFor(RoleAdmin)
	assert.False(t, admin.CanAccess(Module("PARKING")))
	assert.False(t, DefaultPolicy().Decide(RoleAdmin, ModuleDashboard, Action("APPROVE")))
}

func TestInactivePrincipalIsDenied(t *testing.T) {
	holder := NewPrincipalHolder()
	holder.Set(Principal{ID: 2, Role: RoleAdmin, IsActive: false})
	authz := NewAuthorizer(DefaultPolicy(), holder)
	assert.False(t, authz.CanAccess(ModuleDashboard))
	assert.False(t, authz.IsAdmin())
}

func TestPermissionDescriptionProperty(t *testing.T) {
	for _, role := range Roles() {
		authz := authorizerFor(role)
		for _, m := range Modules() {
			desc := authz.PermissionDescription(m)
			switch {
			case authz.CanAdd(m) || role == RoleAdmin:
				assert.Equal(t, "Full access (CRUD)", desc, "%s %s", role, m)
			case authz.CanView(m):
				assert.Equal(t, "View only", desc, "%s %s", role, m)
			default:
				assert.Equal(t, "No access", desc, "%s %s", role, m)
			}
		}
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		module Module
		access bool
		add    bool
		desc   string
	}{
		{"staff contracts", RoleStaff, ModuleContracts, true, true, "Full access (CRUD)"},
		{"staff services", RoleStaff, ModuleServices, true, false, "View only"},
		{"accountant reports", RoleAccountant, ModuleReports, true, false, "View only"},
		{"accountant floors", RoleAccountant, ModuleFloors, false, false, "No access"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := authorizerFor(tt.role)
			assert.Equal(t, tt.access, authz.CanAccess(tt.module))
			assert.Equal(t, tt.add, authz.CanAdd(tt.module))
			assert.Equal(t, tt.add, authz.CanEdit(tt.module))
			assert.Equal(t, tt.add, authz.CanDelete(tt.module))
			assert.Equal(t, tt.desc, authz.PermissionDescription(tt.module))
		})
	}
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, authorizerFor(RoleAdmin).IsAdmin())
	assert.False(t, authorizerFor(RoleAdmin).IsStaff())
	assert.True(t, authorizerFor(RoleStaff).IsStaff())
	assert.True(t, authorizerFor(RoleAccountant).IsAccountant())
	assert.False(t, authorizerFor(RoleAccountant).IsAdmin())
}

func TestPermissionSummary(t *testing.T) {
	summary := authorizerFor(RoleStaff).PermissionSummary()
	assert.Contains(t, summary, "Permissions for role Staff:")
	assert.Contains(t, summary, "Contracts: CRUD (View, Add, Edit, Delete)\n")
	assert.Contains(t, summary, "Services: View only\n")
	assert.Contains(t, summary, "Invoices: No access\n")
}

func TestAccessDeniedNamesActionAndRole(t *testing.T) {
	result := authorizerFor(RoleStaff).Check(ModuleInvoices, ActionDelete)
	require.False(t, result.Allowed)
	assert.Equal(t, "You do not have permission to delete invoices. Current role: Staff.", result.Reason)

	assert.True(t, authorizerFor(RoleStaff).Check(ModuleContracts, ActionEdit).Allowed)
}

func TestOverridableDeleteRule(t *testing.T) {
	policy := DefaultPolicy()
	policy.DeleteRule = func(role Role, module Module) bool {
		return role == RoleAdmin
	}
	holder := NewPrincipalHolder()
	holder.Set(Principal{ID: 3, Role: RoleStaff, IsActive: true})
	authz := NewAuthorizer(policy, holder)

	assert.True(t, authz.CanAdd(ModuleContracts))
	assert.True(t, authz.CanEdit(ModuleContracts))
	assert.False(t, authz.CanDelete(ModuleContracts))
}

func TestDecideIsDeterministic(t *testing.T) {
	policy := DefaultPolicy()
	for _, role := range Roles() {
		for _, m := range Modules() {
			for _, a := range Actions() {
				first := policy.Decide(role, m, a)
				for i := 0; i < 3; i++ {
					require.Equal(t, first, policy.Decide(role, m, a))
				}
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" staff ")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, role)

	_, err = ParseRole("owner")
	assert.ErrorIs(t, err, ErrUnknownRole)

	module, err := ParseModule("invoices")
	require.NoError(t, err)
	assert.Equal(t, ModuleInvoices, module)
	assert.Equal(t, "Invoices", module.Label())

	_, err = ParseAction("approve")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
