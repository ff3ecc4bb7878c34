package rbac

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrUnknownRole is returned when role input does not name a known role.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrUnknownModule is returned when module input does not name a known module.
	ErrUnknownModule = errors.New("rbac: unknown module")
	// ErrUnknownAction is returned when action input does not name a known action.
	ErrUnknownAction = errors.New("rbac: unknown action")
)

// Role groups principals that share one row of the decision table.
type Role string

const (
	// RoleUnknown is the zero value and is denied everything.
	RoleUnknown    Role = ""
	RoleAdmin      Role = "ADMIN"
	RoleStaff      Role = "STAFF"
	RoleAccountant Role = "ACCOUNTANT"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleStaff, RoleAccountant}
}

// ParseRole converts boundary input into a Role, ignoring case and surrounding space.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return RoleUnknown, ErrUnknownRole
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleAccountant:
		return true
	}
	return false
}

// Label returns the display form of the role, e.g. "Accountant".
func (r Role) Label() string {
	if !r.Valid() {
		return "None"
	}
	return titleCase(string(r))
}

// Module is a functional area of the complex back office.
type Module string

const (
	ModuleDashboard  Module = "DASHBOARD"
	ModuleBuildings  Module = "BUILDINGS"
	ModuleFloors     Module = "FLOORS"
	ModuleApartments Module = "APARTMENTS"
	ModuleResidents  Module = "RESIDENTS"
	ModuleContracts  Module = "CONTRACTS"
	ModuleServices   Module = "SERVICES"
	ModuleInvoices   Module = "INVOICES"
	ModuleReports    Module = "REPORTS"
)

// Modules lists every module in display order.
func Modules() []Module {
	return []Module{
		ModuleDashboard,
		ModuleBuildings,
		ModuleFloors,
		ModuleApartments,
		ModuleResidents,
		ModuleContracts,
		ModuleServices,
		ModuleInvoices,
		ModuleReports,
	}
}

// ParseModule converts boundary input into a Module.
func ParseModule(raw string) (Module, error) {
	module := Module(strings.ToUpper(strings.TrimSpace(raw)))
	if !module.Valid() {
		return "", ErrUnknownModule
	}
	return module, nil
}

// Valid reports whether m is one of the known modules.
func (m Module) Valid() bool {
	for _, known := range Modules() {
		if m == known {
			return true
		}
	}
	return false
}

// Label returns the display form of the module, e.g. "Invoices".
func (m Module) Label() string {
	return titleCase(string(m))
}

// Action is an operation attempted against a module.
type Action string

const (
	ActionView   Action = "VIEW"
	ActionAdd    Action = "ADD"
	ActionEdit   Action = "EDIT"
	ActionDelete Action = "DELETE"
)

// Actions lists every action.
func Actions() []Action {
	return []Action{ActionView, ActionAdd, ActionEdit, ActionDelete}
}

// ParseAction converts boundary input into an Action.
func ParseAction(raw string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(raw)))
	switch action {
	case ActionView, ActionAdd, ActionEdit, ActionDelete:
		return action, nil
	}
	return "", ErrUnknownAction
}

// Verb returns the lower-case verb used in messages.
func (a Action) Verb() string {
	return strings.ToLower(string(a))
}

// Principal is the authenticated actor a decision is made for.
type Principal struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	IsActive    bool   `json:"is_active"`
}

// PermissionResult is the outcome of a single authorization decision.
type PermissionResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow is the result for a permitted action.
func Allow() PermissionResult {
	return PermissionResult{Allowed: true}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}
