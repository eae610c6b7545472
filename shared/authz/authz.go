// Package authz decides whether an authenticated actor may act on a resource.
// It holds no state and never performs the mutation it guards.
package authz

import (
	"errors"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// ErrForbidden is returned when the actor is known but not entitled to the action.
var ErrForbidden = errors.New("forbidden")

// Action names the operation being authorized. It is carried into denial errors.
type Action string

const (
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionList       Action = "list"
	ActionChangeRole Action = "change_role"
)

// Actor is the authenticated principal performing an action.
type Actor struct {
	ID   string
	Role auth.Role
}

// ActorFromClaims builds an Actor from verified token or session claims.
func ActorFromClaims(c *auth.Claims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{ID: c.UserID(), Role: c.Role}
}

// Denial describes why an action was refused. It matches ErrForbidden with errors.Is.
type Denial struct {
	Action Action
	Reason string
}

func (d *Denial) Error() string {
	return "forbidden: cannot " + string(d.Action) + ": " + d.Reason
}

func (d *Denial) Is(target error) bool {
	return target == ErrForbidden
}

// Authorize applies the ownership rule: admins may act on anything,
// everybody else only on resources they own.
func Authorize(actor Actor, action Action, resourceOwnerID string) error {
	if actor.Role == auth.RoleAdmin {
		return nil
	}
	if actor.ID != "" && actor.ID == resourceOwnerID {
		return nil
	}
	return &Denial{Action: action, Reason: "not the owner"}
}

// RequireRole applies the role-only rule with no ownership fallback.
func RequireRole(actor Actor, action Action, role auth.Role) error {
	if actor.Role == role {
		return nil
	}
	return &Denial{Action: action, Reason: "requires role " + string(role)}
}

// Allowed is the boolean form of Authorize.
func Allowed(actor Actor, action Action, resourceOwnerID string) bool {
	return Authorize(actor, action, resourceOwnerID) == nil
}
