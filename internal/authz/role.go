package authz

import "fmt"

// Role is the single coarse-grained permission tier attached to an identity.
// Exactly one role is attached to an authenticated user; it changes only by
// re-authentication.
type Role string

// Roles known to the system.
const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleSeller     Role = "SELLER"
	RoleViewer     Role = "VIEWER"
)

// AllRoles lists every valid role in precedence order.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleSeller, RoleViewer}
}

// ErrInvalidRole indicates a role value outside the closed enumeration.
// Callers must treat it as "no identity" and force re-authentication.
var ErrInvalidRole = fmt.Errorf("authz: invalid role")

// ParseRole converts a stored role string into a Role.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleSuperAdmin, RoleAdmin, RoleSeller, RoleViewer:
		return Role(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsSuperAdmin reports whether the role bypasses every permission check.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, string(r))
	}
	return []byte(r), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(data []byte) error {
	parsed, err := ParseRole(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is an immutable membership set over roles.
type RoleSet []Role

// Contains reports whether the set includes the given role.
func (s RoleSet) Contains(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings for display payloads.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}
