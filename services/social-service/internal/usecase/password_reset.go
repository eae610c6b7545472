package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

// resetTokenBytes gives raw reset tokens 256 bits of entropy.
const resetTokenBytes = 32

// Mailer delivers outbound email. It is satisfied by *mailer.Mailer.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// PasswordResetUsecase defines the business logic for password reset token operations.
type PasswordResetUsecase interface {
	// CreatePasswordReset stores a new reset for the user with email, superseding
	// any pending one, and returns the raw token. It fails with ErrUserNotFound.
	CreatePasswordReset(ctx context.Context, email string) (string, error)

	// RequestPasswordReset creates a reset and mails its link. An unknown email
	// succeeds without sending anything.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword consumes rawToken and replaces the password. Wrong and
	// expired tokens both fail with ErrResetTokenNotFoundOrExpired.
	ResetPassword(ctx context.Context, rawToken, newPassword string) error

	// ValidatePasswordResetToken checks rawToken without consuming it.
	ValidatePasswordResetToken(ctx context.Context, rawToken string) error
}

// PasswordResetConfig holds the reset link target and token lifetime.
type PasswordResetConfig struct {
	ResetURL  string
	ExpiresIn time.Duration
}

type passwordResetUsecase struct {
	userRepo repository.UserRepository
	hasher   *security.PasswordHasher
	mailer   Mailer
	config   PasswordResetConfig
	now      func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	hasher *security.PasswordHasher,
	mailer Mailer,
	config PasswordResetConfig,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		mailer:   mailer,
		config:   config,
		now:      time.Now,
	}
}

func (u *passwordResetUsecase) CreatePasswordReset(ctx context.Context, email string) (string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", notFound(err, ErrUserNotFound)
	}

	return u.createReset(ctx, user)
}

func (u *passwordResetUsecase) createReset(ctx context.Context, user *model.User) (string, error) {
	rawToken, err := security.GenerateRandomToken(resetTokenBytes)
	if err != nil {
		return "", err
	}

	reset := model.PasswordReset{
		TokenHash: security.HashToken(rawToken),
		ExpiresAt: u.now().Add(u.config.ExpiresIn),
	}

	if err := u.userRepo.SetPasswordReset(ctx, user.ID.Hex(), reset); err != nil {
		return "", notFound(err, ErrUserNotFound)
	}

	return rawToken, nil
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same response for unknown addresses, so the endpoint cannot enumerate accounts.
			return nil
		}
		return err
	}

	rawToken, err := u.createReset(ctx, user)
	if err != nil {
		return err
	}

	resetLink, err := u.resetLink(rawToken)
	if err != nil {
		return err
	}

	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, please click the link below to create a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>
		<p>If you did not request a password reset, you can ignore this email and your password will stay the same.</p>

		<p>Thank you,</p>
		<p>Social Network Team</p>
	`, user.FirstName, resetLink, resetLink, u.config.ExpiresIn)

	if err := u.mailer.SendHTML([]string{user.Email}, "Password Reset Request", htmlBody); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}

func (u *passwordResetUsecase) resetLink(rawToken string) (string, error) {
	link, err := url.Parse(u.config.ResetURL)
	if err != nil {
		return "", fmt.Errorf("invalid password reset url: %w", err)
	}

	query := link.Query()
	query.Set("token", rawToken)
	link.RawQuery = query.Encode()

	return link.String(), nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return ErrResetTokenNotFoundOrExpired
	}

	passwordHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.ConsumePasswordReset(
		ctx,
		security.HashToken(rawToken),
		u.now(),
		passwordHash,
	); err != nil {
		return notFound(err, ErrResetTokenNotFoundOrExpired)
	}

	return nil
}

func (u *passwordResetUsecase) ValidatePasswordResetToken(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return ErrResetTokenNotFoundOrExpired
	}

	_, err := u.userRepo.GetUserByPasswordReset(ctx, security.HashToken(rawToken), u.now())

	return notFound(err, ErrResetTokenNotFoundOrExpired)
}
