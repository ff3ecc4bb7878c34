package rbac

// Policy decides whether a role may perform an action on a module.
// Implementations must be deterministic and must deny unknown input.
type Policy interface {
	Decide(role Role, module Module, action Action) bool
}

// Rule is a per-action override consulted by TablePolicy.
type Rule func(role Role, module Module) bool

// ModuleSet is a set of modules.
type ModuleSet map[Module]struct{}

// NewModuleSet builds a set from the given modules.
func NewModuleSet(modules ...Module) ModuleSet {
	set := make(ModuleSet, len(modules))
	for _, m := range modules {
		set[m] = struct{}{}
	}
	return set
}

// Has reports whether m is in the set.
func (s ModuleSet) Has(m Module) bool {
	_, ok := s[m]
	return ok
}

// TablePolicy is a static role to module decision table.
//
// Access holds the modules each role may view. Mutate holds the modules each
// role may add to. Edit and delete follow Mutate unless EditRule or DeleteRule
// is set. Admin is granted everything without a table entry.
type TablePolicy struct {
	Access     map[Role]ModuleSet
	Mutate     map[Role]ModuleSet
	EditRule   Rule
	DeleteRule Rule
}

// DefaultPolicy returns the complex's role table.
func DefaultPolicy() *TablePolicy {
	return &TablePolicy{
		Access: map[Role]ModuleSet{
			RoleStaff: NewModuleSet(
				ModuleDashboard,
				ModuleBuildings,
				ModuleFloors,
				ModuleApartments,
				ModuleResidents,
				ModuleContracts,
				ModuleServices,
			),
			RoleAccountant: NewModuleSet(
				ModuleDashboard,
				ModuleBuildings,
				ModuleApartments,
				ModuleResidents,
				ModuleContracts,
				ModuleServices,
				ModuleInvoices,
				ModuleReports,
			),
		},
		Mutate: map[Role]ModuleSet{
			RoleStaff:      NewModuleSet(ModuleApartments, ModuleResidents, ModuleContracts),
			RoleAccountant: NewModuleSet(ModuleServices, ModuleInvoices),
		},
	}
}

// Decide implements Policy.
func (p *TablePolicy) Decide(role Role, module Module, action Action) bool {
	if p == nil || !role.Valid() || !module.Valid() {
		return false
	}
	switch action {
	case ActionView:
		return p.canView(role, module)
	case ActionAdd:
		return p.canAdd(role, module)
	case ActionEdit:
		if p.EditRule != nil {
			return p.EditRule(role, module)
		}
		return p.canAdd(role, module)
	case ActionDelete:
		if p.DeleteRule != nil {
			return p.DeleteRule(role, module)
		}
		return p.canAdd(role, module)
	}
	return false
}

func (p *TablePolicy) canView(role Role, module Module) bool {
	if role == RoleAdmin {
		return true
	}
	return p.Access[role].Has(module)
}

func (p *TablePolicy) canAdd(role Role, module Module) bool {
	if role == RoleAdmin {
		return true
	}
	return p.Mutate[role].Has(module)
}

var _ Policy = (*TablePolicy)(nil)
