package interceptor

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

var (
	ErrMissingCredentials  = errors.New("missing authorization header")
	ErrInvalidHeaderFormat = errors.New("invalid authorization header format")
)

// NewJWTInterceptor returns a unary interceptor that rejects calls without a valid
// bearer token, except for exemptMethods, and stores the claims in the context.
func NewJWTInterceptor(verifier TokenVerifier, exemptMethods []string) grpc.UnaryServerInterceptor {
	exemptMap := make(map[string]bool)
	for _, method := range exemptMethods {
		exemptMap[method] = true
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		// Skip authentication for exempt methods
		if exemptMap[info.FullMethod] {
			return handler(ctx, req)
		}

		claims, err := extractAndValidateJWT(ctx, verifier)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(WithClaims(ctx, claims), req)
	}
}

func extractAndValidateJWT(ctx context.Context, verifier TokenVerifier) (*auth.Claims, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, ErrMissingCredentials
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return nil, ErrMissingCredentials
	}

	token, err := ParseBearer(authHeaders[0])
	if err != nil {
		return nil, err
	}

	return verifier.Verify(token)
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" value.
func ParseBearer(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidHeaderFormat
	}

	return strings.TrimSpace(parts[1]), nil
}
