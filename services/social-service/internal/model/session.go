package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// Session represents a server-side login session referenced by a cookie.
// It carries the same identity facts as an access token.
type Session struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	TokenHash string        `bson:"token_hash"`
	UserID    string        `bson:"user_id"`
	Email     string        `bson:"email"`
	Role      auth.Role     `bson:"role"`
	IPAddress *string       `bson:"ip_address"`
	UserAgent *string       `bson:"user_agent"`
	IssuedAt  time.Time     `bson:"issued_at"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

// Claims returns the session's identity facts in token form.
func (s *Session) Claims() *auth.Claims {
	return &auth.Claims{
		Email: s.Email,
		Role:  s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID.Hex(),
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
}
