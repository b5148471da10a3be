package authz

import "log/slog"

// Resolver answers module- and route-level permission questions over the
// static catalog. It is pure over its inputs: the same role and catalog
// always produce the same decision, and expected conditions (unknown module,
// unknown route) resolve to denial rather than errors.
type Resolver struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewResolver constructs a Resolver. The logger is used only to flag
// configuration mistakes such as unknown module keys.
func NewResolver(catalog *Catalog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Catalog exposes the underlying module catalog.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// CanAccessModule decides whether role may enter the module identified by
// key. When action is non-empty and the module defines a role set for it,
// that set is authoritative for the decision; otherwise the module's
// AllowedRoles apply. An unknown key is a configuration error: it is logged
// and denied, never allowed.
func (r *Resolver) CanAccessModule(role Role, key ModuleKey, action Action) Decision {
	// The bypass does not depend on catalog data; a super admin passes
	// every check.
	if role.IsSuperAdmin() {
		return Allow()
	}
	module, ok := r.catalog.Module(key)
	if !ok {
		r.logger.Error("authz: unknown module key", slog.String("module", string(key)))
		return Deny(role, nil)
	}
	set := module.AllowedRoles
	if action != "" {
		if narrowed, ok := module.Actions[action]; ok {
			set = narrowed
		}
	}
	if set.Contains(role) {
		return Allow()
	}
	return Deny(role, set)
}

// CanAccessRoute decides whether role may navigate to path. The path is
// resolved to its owning module (exact match or longest prefix followed by
// a slash); unregistered routes deny by default.
func (r *Resolver) CanAccessRoute(role Role, path string) bool {
	if role.IsSuperAdmin() {
		return true
	}
	module, ok := r.catalog.ResolveRoute(path)
	if !ok {
		return false
	}
	return module.AllowedRoles.Contains(role)
}

// RouteDecision is CanAccessRoute with denial context, for callers that
// render the denial.
func (r *Resolver) RouteDecision(role Role, path string) Decision {
	if role.IsSuperAdmin() {
		return Allow()
	}
	module, ok := r.catalog.ResolveRoute(path)
	if !ok {
		return Deny(role, nil)
	}
	if module.AllowedRoles.Contains(role) {
		return Allow()
	}
	return Deny(role, module.AllowedRoles)
}
