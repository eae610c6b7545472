package authz

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actor   Actor
		ownerID string
		allowed bool
	}{
		{"owner", Actor{ID: "A", Role: auth.RoleUser}, "A", true},
		{"other user", Actor{ID: "A", Role: auth.RoleUser}, "B", false},
		{"admin on other", Actor{ID: "A", Role: auth.RoleAdmin}, "B", true},
		{"admin on own", Actor{ID: "A", Role: auth.RoleAdmin}, "A", true},
		{"anonymous vs empty owner", Actor{}, "", false},
		{"unknown role", Actor{ID: "A", Role: "root"}, "B", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, action := range []Action{ActionUpdate, ActionDelete} {
				err := Authorize(tt.actor, action, tt.ownerID)
				if tt.allowed {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, ErrForbidden)
				}
				assert.Equal(t, tt.allowed, Allowed(tt.actor, action, tt.ownerID))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	assert.NoError(t, RequireRole(Actor{ID: "A", Role: auth.RoleAdmin}, ActionList, auth.RoleAdmin))

	err := RequireRole(Actor{ID: "A", Role: auth.RoleUser}, ActionList, auth.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	var denial *Denial
	assert.True(t, errors.As(err, &denial))
	assert.Equal(t, ActionList, denial.Action)
}

func TestActorFromClaims(t *testing.T) {
	t.Parallel()

	claims := &auth.Claims{
		Email:            "a@example.com",
		Role:             auth.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "A"},
	}

	assert.Equal(t, Actor{ID: "A", Role: auth.RoleUser}, ActorFromClaims(claims))
	assert.Equal(t, Actor{}, ActorFromClaims(nil))
}
