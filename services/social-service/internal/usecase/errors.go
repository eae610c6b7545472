package usecase

import (
	"errors"
	"fmt"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
)

// Kinds. Every specific error below wraps exactly one of them, so callers can
// map errors with errors.Is against the kind alone.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrInvalidCredentials          = errors.New("invalid credentials")
	ErrResetTokenNotFoundOrExpired = errors.New("password reset token not found or expired")

	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound      = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound   = fmt.Errorf("comment %w", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("session %w", ErrNotFound)
	ErrUserAlreadyExists = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrEmailTaken        = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrAlreadyFriends    = fmt.Errorf("%w: already friends", ErrConflict)
	ErrIdentityLinked    = fmt.Errorf("%w: provider identity linked to another user", ErrConflict)
	ErrSelfFriend        = fmt.Errorf("%w: cannot befriend yourself", ErrInvalidInput)
	ErrInvalidRole       = fmt.Errorf("%w: unknown role", ErrInvalidInput)
	ErrNothingToUpdate   = fmt.Errorf("%w: no fields to update", ErrInvalidInput)
)

// notFound maps repository.ErrNotFound to target and passes everything else through.
func notFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
