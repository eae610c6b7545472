package interceptor

import (
	"context"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

type contextKey struct{}

// UserClaimsKey is the context key under which verified claims are stored.
var UserClaimsKey = contextKey{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// ClaimsFromContext returns the claims attached by an authenticating middleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}
