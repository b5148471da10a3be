package authz

// Subject is the authenticated identity as seen by the engine. The engine
// never mutates identity; it is read-only input supplied by the auth layer.
type Subject struct {
	UserID int64
	Role   Role
}

// GuardState is the terminal outcome of one navigation attempt. Every
// attempt resolves to exactly one state; there is no pending state.
type GuardState int

const (
	// GuardUnauthenticated means no valid session identity was present.
	// The caller redirects to login; the requested path is discarded.
	GuardUnauthenticated GuardState = iota
	// GuardDenied means the identity is valid but lacks the required role.
	// The guarded content must not be reached at all.
	GuardDenied
	// GuardAllowed means the guarded content may be served.
	GuardAllowed
)

// GuardOutcome pairs the state with the denial context for rendering.
type GuardOutcome struct {
	State    GuardState
	Decision Decision
}

// Guard gates navigation. Evaluation is synchronous over the static catalog;
// it never blocks on a network round-trip.
type Guard struct {
	resolver *Resolver
}

// NewGuard constructs a Guard over the resolver.
func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// EvaluateRoute resolves one navigation attempt against the catalog route
// table. A nil subject or invalid role is unauthenticated; an unregistered
// path denies by default.
func (g *Guard) EvaluateRoute(subject *Subject, path string) GuardOutcome {
	if subject == nil || !subject.Role.Valid() {
		return GuardOutcome{State: GuardUnauthenticated}
	}
	decision := g.resolver.RouteDecision(subject.Role, path)
	if !decision.Allowed {
		return GuardOutcome{State: GuardDenied, Decision: decision}
	}
	return GuardOutcome{State: GuardAllowed, Decision: decision}
}

// EvaluateRoles resolves a navigation attempt against an explicit
// required-role list attached at the routing layer, bypassing route lookup.
func (g *Guard) EvaluateRoles(subject *Subject, required RoleSet) GuardOutcome {
	if subject == nil || !subject.Role.Valid() {
		return GuardOutcome{State: GuardUnauthenticated}
	}
	if !required.Contains(subject.Role) {
		return GuardOutcome{State: GuardDenied, Decision: Deny(subject.Role, required)}
	}
	return GuardOutcome{State: GuardAllowed, Decision: Allow()}
}

// EvaluateModule resolves a navigation attempt against a module key and
// optional action, for handlers that know their module rather than their
// path.
func (g *Guard) EvaluateModule(subject *Subject, key ModuleKey, action Action) GuardOutcome {
	if subject == nil || !subject.Role.Valid() {
		return GuardOutcome{State: GuardUnauthenticated}
	}
	decision := g.resolver.CanAccessModule(subject.Role, key, action)
	if !decision.Allowed {
		return GuardOutcome{State: GuardDenied, Decision: decision}
	}
	return GuardOutcome{State: GuardAllowed, Decision: decision}
}
