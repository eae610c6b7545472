package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// User represents an identity of the social network.
// A user signs in with email and password, through a linked federated provider, or both.
type User struct {
	ID             bson.ObjectID   `bson:"_id,omitempty"`
	FirstName      string          `bson:"first_name"`
	LastName       string          `bson:"last_name"`
	Email          string          `bson:"email"`
	PasswordHash   string          `bson:"password_hash"`
	Address        string          `bson:"address,omitempty"`
	Mobile         string          `bson:"mobile,omitempty"`
	Role           auth.Role       `bson:"role"`
	Friends        []bson.ObjectID `bson:"friends"`
	FederatedLinks []FederatedLink `bson:"federated_links"`
	PasswordReset  *PasswordReset  `bson:"password_reset,omitempty"`
	CreatedAt      time.Time       `bson:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at"`
}

// Subject returns the identity facts carried in access tokens and sessions.
func (u *User) Subject() auth.Subject {
	return auth.Subject{
		UserID: u.ID.Hex(),
		Email:  u.Email,
		Role:   u.Role,
	}
}

// HasFriend reports whether friendID is in the user's friend list.
func (u *User) HasFriend(friendID bson.ObjectID) bool {
	for _, id := range u.Friends {
		if id == friendID {
			return true
		}
	}
	return false
}

// FederatedLink returns the user's link for provider and subject, if any.
func (u *User) FederatedLink(provider, subject string) (FederatedLink, bool) {
	for _, link := range u.FederatedLinks {
		if link.Provider == provider && link.Subject == subject {
			return link, true
		}
	}
	return FederatedLink{}, false
}
