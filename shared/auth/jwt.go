package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// hmacSigner signs and parses HS256 tokens bound to one issuer and audience.
type hmacSigner struct {
	key      []byte
	audience string
	issuer   string
}

func newHMACSigner(secret, audience, issuer string) hmacSigner {
	return hmacSigner{
		key:      []byte(secret),
		audience: audience,
		issuer:   issuer,
	}
}

// Sign serializes claims into a compact HS256 token.
func (s hmacSigner) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse checks the signature of token and decodes it into claims, which must
// be a pointer. Time-based claims are left to the caller, so only the method,
// issuer, audience and not-before at now are checked here.
func (s hmacSigner) Parse(token string, claims jwt.Claims, now time.Time) error {
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("token is not valid")
	}

	if issuer, _ := claims.GetIssuer(); issuer != s.issuer {
		return jwt.ErrTokenInvalidIssuer
	}

	audience, _ := claims.GetAudience()
	if !slices.Contains(audience, s.audience) {
		return jwt.ErrTokenInvalidAudience
	}

	if notBefore, _ := claims.GetNotBefore(); notBefore != nil && now.Before(notBefore.Time) {
		return jwt.ErrTokenNotValidYet
	}

	return nil
}

func (s hmacSigner) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.key, nil
}
