package model

import (
	"time"
)

// PasswordReset is the pending reset request of a user.
// Only the SHA-256 of the raw token is stored; a new request overwrites the old one.
type PasswordReset struct {
	TokenHash string    `bson:"token_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
}
