package provider

import (
	"fmt"
	"net/mail"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// ErrInvalidProfile marks a provider payload missing required fields.
// It is a token error: the payload is as untrusted as a malformed token.
var ErrInvalidProfile = fmt.Errorf("%w: malformed provider profile", auth.ErrTokenInvalid)

// Profile is the subset of an external identity the service relies on.
type Profile struct {
	Provider   string
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
}

// Validate rejects profiles lacking any required field or carrying a bad email.
func (p *Profile) Validate() error {
	switch {
	case p.Provider == "":
		return fmt.Errorf("%w: missing provider", ErrInvalidProfile)
	case p.Subject == "":
		return fmt.Errorf("%w: missing subject id", ErrInvalidProfile)
	case p.Email == "":
		return fmt.Errorf("%w: missing email", ErrInvalidProfile)
	case p.GivenName == "":
		return fmt.Errorf("%w: missing given name", ErrInvalidProfile)
	case p.FamilyName == "":
		return fmt.Errorf("%w: missing family name", ErrInvalidProfile)
	}

	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidProfile)
	}

	return nil
}
