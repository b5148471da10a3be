package authz

import (
	"fmt"
	"strings"
)

// Action is a fine-grained operation on a module's resource.
type Action string

// Actions restricted below the module-level grant.
const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

// ParseAction converts a query/path value into an Action.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionView:
		return ActionView, nil
	case ActionCreate:
		return ActionCreate, nil
	case ActionEdit:
		return ActionEdit, nil
	case ActionDelete:
		return ActionDelete, nil
	case ActionApprove:
		return ActionApprove, nil
	}
	return "", fmt.Errorf("authz: unknown action %q", value)
}

// ModuleKey identifies a functional area of the console.
type ModuleKey string

// Modules of the console.
const (
	ModuleDashboard   ModuleKey = "dashboard"
	ModuleAnalytics   ModuleKey = "analytics"
	ModuleCategories  ModuleKey = "categories"
	ModuleProducts    ModuleKey = "products"
	ModuleOrders      ModuleKey = "orders"
	ModuleCustomers   ModuleKey = "customers"
	ModuleFinancial   ModuleKey = "financial"
	ModuleAudit       ModuleKey = "audit"
	ModulePermissions ModuleKey = "permissions"
)

// Module describes one functional area: its route, display metadata, the
// roles allowed to enter it, and optional per-action role sets that narrow
// access below the module-level grant.
type Module struct {
	Key          ModuleKey
	Path         string
	Name         string
	Icon         string
	AllowedRoles RoleSet
	// IsAdminOnly controls sidebar grouping only. The access decision is
	// driven solely by AllowedRoles.
	IsAdminOnly bool
	// Actions, where present, is the authoritative role set for that
	// action. Actions absent from the map fall back to AllowedRoles.
	Actions map[Action]RoleSet
}

// Catalog is the ordered, process-wide static module configuration. It is
// loaded once at startup and never mutated at runtime.
type Catalog struct {
	modules []Module
	byKey   map[ModuleKey]*Module
}

// NewCatalog builds a catalog preserving declaration order. It fails on
// duplicate keys or paths; run Validate afterwards for the role invariants.
func NewCatalog(modules []Module) (*Catalog, error) {
	c := &Catalog{
		modules: make([]Module, len(modules)),
		byKey:   make(map[ModuleKey]*Module, len(modules)),
	}
	copy(c.modules, modules)
	paths := make(map[string]ModuleKey, len(modules))
	for i := range c.modules {
		m := &c.modules[i]
		if m.Key == "" {
			return nil, fmt.Errorf("authz: module at index %d has empty key", i)
		}
		if _, dup := c.byKey[m.Key]; dup {
			return nil, fmt.Errorf("authz: duplicate module key %q", m.Key)
		}
		if m.Path == "" || !strings.HasPrefix(m.Path, "/") {
			return nil, fmt.Errorf("authz: module %q has invalid path %q", m.Key, m.Path)
		}
		if owner, dup := paths[m.Path]; dup {
			return nil, fmt.Errorf("authz: modules %q and %q share path %q", owner, m.Key, m.Path)
		}
		paths[m.Path] = m.Key
		c.byKey[m.Key] = m
	}
	return c, nil
}

// Module returns the module for key, or false when the key is not
// registered.
func (c *Catalog) Module(key ModuleKey) (Module, bool) {
	m, ok := c.byKey[key]
	if !ok {
		return Module{}, false
	}
	return *m, true
}

// Modules returns all modules in declaration order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// ResolveRoute maps a request path to the owning module: an exact path match
// or the longest registered path that prefixes the request path followed by
// a slash. Unregistered paths resolve to nothing.
func (c *Catalog) ResolveRoute(path string) (Module, bool) {
	var best *Module
	for i := range c.modules {
		m := &c.modules[i]
		if path == m.Path || strings.HasPrefix(path, m.Path+"/") {
			if best == nil || len(m.Path) > len(best.Path) {
				best = m
			}
		}
	}
	if best == nil {
		return Module{}, false
	}
	return *best, true
}

// Validate checks the configuration invariants: every role in an action set
// must also appear in the module's AllowedRoles, and every role value must
// belong to the closed enumeration. Meant to run once at startup.
func (c *Catalog) Validate() error {
	for _, m := range c.modules {
		if len(m.AllowedRoles) == 0 {
			return fmt.Errorf("authz: module %q allows no roles", m.Key)
		}
		for _, r := range m.AllowedRoles {
			if !r.Valid() {
				return fmt.Errorf("authz: module %q references invalid role %q", m.Key, r)
			}
		}
		for action, set := range m.Actions {
			if len(set) == 0 {
				return fmt.Errorf("authz: module %q action %q allows no roles", m.Key, action)
			}
			for _, r := range set {
				if !r.Valid() {
					return fmt.Errorf("authz: module %q action %q references invalid role %q", m.Key, action, r)
				}
				// The view action may widen access to roles without the
				// module-level grant (read-only listings); every other
				// action must stay within AllowedRoles.
				if action != ActionView && !m.AllowedRoles.Contains(r) {
					return fmt.Errorf("authz: module %q action %q grants role %q outside allowed roles", m.Key, action, r)
				}
			}
		}
	}
	return nil
}

// DefaultCatalog returns the console's module configuration. Declaration
// order here is the sidebar order.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog([]Module{
		{
			Key:          ModuleDashboard,
			Path:         "/",
			Name:         "Dashboard",
			Icon:         "layout-dashboard",
			AllowedRoles: RoleSet{RoleSuperAdmin, RoleAdmin},
		},
		{
			Key:          ModuleAnalytics,
			Path:         "/analytics",
			Name:         "Analytics",
			Icon:         "bar-chart-3",
			AllowedRoles: RoleSet{RoleSuperAdmin, RoleAdmin},
		},
		{
			Key:          ModuleCategories,
			Path:         "/categories",
			Name:         "Categories",
			Icon:         "package",
			AllowedRoles: RoleSet{RoleSuperAdmin, RoleAdmin, RoleSeller},
		},
		{
			Key:          ModuleProducts,
			Path:         "/products",
			Name:         "Products",
			Icon:         "shopping-bag",
			AllowedRoles: RoleSet{RoleSuperAdmin, RoleAdmin, RoleSeller},
			Actions: map[Action]RoleSet{
				ActionView:   {RoleSuperAdmin, RoleAdmin, RoleSeller, RoleViewer},
				ActionCreate: {RoleSuperAdmin, RoleAdmin, RoleSeller},
				ActionEdit:   {RoleSuperAdmin, RoleAdmin, RoleSeller},
				ActionDelete: {RoleSuperAdmin, RoleAdmin},
			},
		},
		{
			Key:          ModuleOrders,
			Path:         "/orders",
			Name:         "Orders",
			Icon:         "shopping-cart",
			AllowedRoles: RoleSet{RoleSuperAdmin, RoleAdmin, RoleSeller},
			Actions: map[Action]RoleSet{
				ActionView:    {RoleSuperAdmin, RoleAdmin, RoleSeller, RoleViewer},
				ActionCreate:  {RoleSuperAdmin, RoleAdmin, RoleSeller},
				ActionEdit:    {RoleSuperAdmin, RoleAdmin, RoleSeller},
				ActionDelete:  {RoleSuperAdmin, RoleAdmin},
				ActionApprove: {RoleSuperAdmin, RoleAdmin},
			},
		},
		{
			Key:          ModuleCustomers,
			Path:         "/customers",
			Name:         "Customers",
			Icon:         "users",
			AllowedRoles: RoleSet{RoleSuperAdmin, RoleAdmin, RoleSeller},
			Actions: map[Action]RoleSet{
				ActionView:   {RoleSuperAdmin, RoleAdmin, RoleSeller, RoleViewer},
				ActionCreate: {RoleSuperAdmin, RoleAdmin, RoleSeller},
				ActionEdit:   {RoleSuperAdmin, RoleAdmin, RoleSeller},
				ActionDelete: {RoleSuperAdmin, RoleAdmin},
			},
		},
		{
			Key:          ModuleFinancial,
			Path:         "/financial",
			Name:         "Financial",
			Icon:         "dollar-sign",
			AllowedRoles: RoleSet{RoleSuperAdmin},
			IsAdminOnly:  true,
		},
		{
			Key:          ModuleAudit,
			Path:         "/audit",
			Name:         "Audit",
			Icon:         "shield",
			AllowedRoles: RoleSet{RoleSuperAdmin},
			IsAdminOnly:  true,
		},
		{
			Key:          ModulePermissions,
			Path:         "/permissions",
			Name:         "Permissions",
			Icon:         "key",
			AllowedRoles: RoleSet{RoleSuperAdmin},
			IsAdminOnly:  true,
		},
	})
	if err != nil {
		// The default catalog is compiled-in configuration; a constructor
		// failure here is a programming error.
		panic(err)
	}
	return catalog
}
