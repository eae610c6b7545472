package security

import (
	"sync"

	"github.com/matthewhartstonge/argon2"
)

// PasswordHasher hashes and verifies passwords with argon2id.
// Digests are self-describing ($argon2id$v=19$m=...,t=...,p=...$salt$hash),
// so verification always uses the parameters the digest was produced with.
type PasswordHasher struct {
	config argon2.Config

	decoyOnce sync.Once
	decoy     string
}

// NewPasswordHasher creates a PasswordHasher with the given argon2 configuration.
func NewPasswordHasher(config argon2.Config) *PasswordHasher {
	config.Mode = argon2.ModeArgon2id
	return &PasswordHasher{config: config}
}

// DefaultPasswordHasher uses the library defaults (64 MiB, 3 passes, 4 lanes),
// which puts a verify in the tens of milliseconds on server hardware.
func DefaultPasswordHasher() *PasswordHasher {
	return NewPasswordHasher(argon2.DefaultConfig())
}

// Hash generates a fresh random salt and returns the encoded digest.
func (h *PasswordHasher) Hash(password string) (string, error) {
	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// Verify reports whether password matches the encoded digest.
// A malformed digest never matches.
func (h *PasswordHasher) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}

	ok, err := argon2.VerifyEncoded([]byte(password), []byte(digest))
	if err != nil {
		return false
	}

	return ok
}

// HashUnusable returns the digest of a random secret nobody knows.
// Accounts holding it cannot log in with credentials until a password is set.
func (h *PasswordHasher) HashUnusable() (string, error) {
	secret, err := GenerateRandomToken(32)
	if err != nil {
		return "", err
	}

	return h.Hash(secret)
}

// VerifyAbsent runs a full verify of password against a decoy digest made
// with this hasher's parameters, and always reports false. Callers use it
// when no account exists, so a miss costs as much as a wrong password.
func (h *PasswordHasher) VerifyAbsent(password string) bool {
	h.decoyOnce.Do(func() {
		h.decoy, _ = h.HashUnusable()
	})

	_ = h.Verify(password, h.decoy)

	return false
}
