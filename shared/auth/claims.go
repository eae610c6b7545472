package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role is the coarse-grained permission level of an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Subject is the identity a token is issued for.
type Subject struct {
	UserID string
	Email  string
	Role   Role
}

// Claims are the identity facts carried by an access token or a server-side session.
// The user id travels in the registered "sub" claim.
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the id of the authenticated identity.
func (c *Claims) UserID() string {
	return c.Subject
}

// IsAdmin reports whether the claims carry the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
