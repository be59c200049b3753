package domain

import "time"

// Claims is the verified identity carried by a session token.
type Claims struct {
	UserID    string
	Email     string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session holds the admin role.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
