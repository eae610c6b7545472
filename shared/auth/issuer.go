package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret the issuer accepts.
const MinSecretLength = 32

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrWeakSecret   = fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
)

// TokenIssuerConfig holds the parameters of a TokenIssuer.
type TokenIssuerConfig struct {
	Secret    string
	ExpiresIn time.Duration
	Issuer    string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// TokenIssuer signs and verifies stateless HS256 access tokens.
type TokenIssuer struct {
	signer    hmacSigner
	expiresIn time.Duration
	issuer    string
	now       func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. A short secret or a non-positive TTL is a
// deployment error and is reported here rather than on the first request.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if cfg.ExpiresIn <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenIssuer{
		signer:    newHMACSigner(cfg.Secret, cfg.Issuer, cfg.Issuer),
		expiresIn: cfg.ExpiresIn,
		issuer:    cfg.Issuer,
		now:       now,
	}, nil
}

// ExpiresIn returns the configured token lifetime.
func (i *TokenIssuer) ExpiresIn() time.Duration {
	return i.expiresIn
}

// NewClaims stamps issued-at and expiry on the subject's identity facts.
func (i *TokenIssuer) NewClaims(subject Subject) *Claims {
	now := i.now()
	return &Claims{
		Email: subject.Email,
		Role:  subject.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.UserID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
		},
	}
}

// Issue signs a new access token for subject.
func (i *TokenIssuer) Issue(subject Subject) (string, *Claims, error) {
	claims := i.NewClaims(subject)

	token, err := i.signer.Sign(claims)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, claims, nil
}

// Verify checks signature, expiry and shape of token and returns its claims.
// A token is still valid at exactly its expiry and expired only after it.
// Any anomaly other than expiry is reported as ErrTokenInvalid.
func (i *TokenIssuer) Verify(token string) (*Claims, error) {
	now := i.now()

	claims := &Claims{}
	if err := i.signer.Parse(token, claims, now); err != nil {
		return nil, ErrTokenInvalid
	}

	if err := validateClaims(claims); err != nil {
		return nil, err
	}

	if Expired(claims.ExpiresAt.Time, now) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// Expired reports whether expiresAt has passed at now. The expiry instant
// itself still counts as valid.
func Expired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

func validateClaims(c *Claims) error {
	if c.Subject == "" || c.Email == "" || !c.Role.Valid() {
		return ErrTokenInvalid
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return ErrTokenInvalid
	}
	return nil
}
