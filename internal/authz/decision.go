package authz

// Decision is the outcome of a permission check. Denial is a value, not an
// error: the zero Decision denies with no context.
type Decision struct {
	Allowed bool
	// RequiredRoles and ActualRole carry denial context for user-facing
	// messages. Both are empty on allow.
	RequiredRoles RoleSet
	ActualRole    Role
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision carrying the role context needed to
// render a helpful message.
func Deny(actual Role, required RoleSet) Decision {
	return Decision{Allowed: false, ActualRole: actual, RequiredRoles: required}
}
