package model

import (
	"time"
)

// FederatedLink maps an identity from an external provider (Google, ...) to a user.
// A (Provider, Subject) pair belongs to at most one user.
type FederatedLink struct {
	Provider string    `bson:"provider"`
	Subject  string    `bson:"subject"`
	Email    string    `bson:"email"`
	LinkedAt time.Time `bson:"linked_at"`
}
