package rbac

import (
	"fmt"
	"strings"
)

const (
	descNoAccess   = "No access"
	descFullAccess = "Full access (CRUD)"
	descViewOnly   = "View only"

	summaryCRUD = "CRUD (View, Add, Edit, Delete)"
)

// ModuleControls describes which controls a client shows for a module.
type ModuleControls struct {
	Module      Module `json:"module"`
	Label       string `json:"label"`
	View        bool   `json:"view"`
	Add         bool   `json:"add"`
	Edit        bool   `json:"edit"`
	Delete      bool   `json:"delete"`
	Description string `json:"description"`
}

// Authorizer answers permission queries for the principal of its source.
// Every query is evaluated against the source at call time.
type Authorizer struct {
	policy Policy
	source PrincipalSource
}

// NewAuthorizer binds policy to a principal source.
func NewAuthorizer(policy Policy, source PrincipalSource) *Authorizer {
	return &Authorizer{policy: policy, source: source}
}

// Principal returns the active principal. Inactive principals count as absent.
func (a *Authorizer) Principal() (Principal, bool) {
	if a == nil || a.source == nil {
		return Principal{}, false
	}
	p, ok := a.source.CurrentPrincipal()
	if !ok || !p.IsActive {
		return Principal{}, false
	}
	return p, true
}

func (a *Authorizer) role() (Role, bool) {
	p, ok := a.Principal()
	if !ok {
		return RoleUnknown, false
	}
	return p.Role, true
}

func (a *Authorizer) decide(module Module, action Action) bool {
	role, ok := a.role()
	if !ok || a.policy == nil {
		return false
	}
	return a.policy.Decide(role, module, action)
}

// CanAccess reports whether the module may be opened at all.
func (a *Authorizer) CanAccess(module Module) bool {
	return a.decide(module, ActionView)
}

// CanView is CanAccess; there is no separate view restriction.
func (a *Authorizer) CanView(module Module) bool {
	return a.CanAccess(module)
}

// CanAdd reports whether records may be created in the module.
func (a *Authorizer) CanAdd(module Module) bool {
	return a.decide(module, ActionAdd)
}

// CanEdit reports whether records in the module may be changed.
func (a *Authorizer) CanEdit(module Module) bool {
	return a.decide(module, ActionEdit)
}

// CanDelete reports whether records in the module may be removed.
func (a *Authorizer) CanDelete(module Module) bool {
	return a.decide(module, ActionDelete)
}

// IsAdmin reports whether the current principal is an admin.
func (a *Authorizer) IsAdmin() bool { return a.hasRole(RoleAdmin) }

// IsStaff reports whether the current principal is staff.
func (a *Authorizer) IsStaff() bool { return a.hasRole(RoleStaff) }

// IsAccountant reports whether the current principal is an accountant.
func (a *Authorizer) IsAccountant() bool { return a.hasRole(RoleAccountant) }

func (a *Authorizer) hasRole(want Role) bool {
	role, ok := a.role()
	return ok && role == want
}

// Check decides one (module, action) pair and explains a denial.
func (a *Authorizer) Check(module Module, action Action) PermissionResult {
	if a.decide(module, action) {
		return Allow()
	}
	return a.AccessDenied(action.Verb() + " " + strings.ToLower(module.Label()))
}

// AccessDenied builds the denial shown to the user for an attempted action.
func (a *Authorizer) AccessDenied(action string) PermissionResult {
	role, ok := a.role()
	if !ok {
		return PermissionResult{Reason: fmt.Sprintf("You must be logged in to %s.", action)}
	}
	return PermissionResult{Reason: fmt.Sprintf("You do not have permission to %s. Current role: %s.", action, role.Label())}
}

// PermissionDescription summarises the principal's rights on a module.
func (a *Authorizer) PermissionDescription(module Module) string {
	if _, ok := a.Principal(); !ok {
		return descNoAccess
	}
	if a.IsAdmin() || a.CanAdd(module) {
		return descFullAccess
	}
	if a.CanView(module) {
		return descViewOnly
	}
	return descNoAccess
}

// PermissionSummary renders one line per module for diagnostics.
func (a *Authorizer) PermissionSummary() string {
	role, ok := a.role()
	if !ok {
		return "Not logged in\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Permissions for role %s:\n", role.Label())
	for _, m := range Modules() {
		line := descNoAccess
		switch {
		case a.CanAdd(m):
			line = summaryCRUD
		case a.CanView(m):
			line = descViewOnly
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Label(), line)
	}
	return b.String()
}

// Controls returns control visibility for every module.
func (a *Authorizer) Controls() []ModuleControls {
	out := make([]ModuleControls, 0, len(Modules()))
	for _, m := range Modules() {
		out = append(out, ModuleControls{
			Module:      m,
			Label:       m.Label(),
			View:        a.CanView(m),
			Add:         a.CanAdd(m),
			Edit:        a.CanEdit(m),
			Delete:      a.CanDelete(m),
			Description: a.PermissionDescription(m),
		})
	}
	return out
}
