package domain

import (
	"strings"
	"time"
)

// Role is the authorization level attached to a user and to every session
// token issued for that user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// ParseRole converts raw input into a Role. An empty string yields the
// default viewer role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleViewer:
		return RoleViewer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", NewValidationError("role must be one of: admin, viewer")
	}
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// User models an account able to sign in.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NormalizeEmail lower-cases and trims an address so lookups and the unique
// index agree on a single spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
