package auth

import (
	"time"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

// User represents an authenticated user account. Role is a required, closed
// enumeration: an account without a valid role cannot authenticate.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         authz.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subject returns the engine's view of this user.
func (u *User) Subject() authz.Subject {
	return authz.Subject{UserID: u.ID, Role: u.Role}
}
