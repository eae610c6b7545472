package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

// OAuthProvider runs an authorization code flow. It is satisfied by
// *provider.GoogleOAuthProvider.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*provider.Profile, error)
}

// FederatedUsecase signs users in through an external identity provider.
type FederatedUsecase interface {
	// AuthCodeURL returns the provider consent URL carrying state.
	AuthCodeURL(state string) (string, error)

	// Login exchanges an authorization code, resolves the profile to a local
	// user and opens a session for it.
	Login(ctx context.Context, code string, meta SessionMetadata) (*AuthResult, error)

	// Resolve maps a verified provider profile to a local user: by provider
	// subject first, then by email (linking the subject), else by creating one.
	Resolve(ctx context.Context, profile provider.Profile) (*model.User, error)
}

type federatedUsecase struct {
	userRepo repository.UserRepository
	hasher   *security.PasswordHasher
	provider OAuthProvider
	sessions *sessionManager
}

// NewFederatedUsecase creates a new instance of FederatedUsecase. A nil
// provider disables the code flow but keeps Resolve usable.
func NewFederatedUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher *security.PasswordHasher,
	issuer *auth.TokenIssuer,
	oauthProvider OAuthProvider,
) FederatedUsecase {
	return &federatedUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		provider: oauthProvider,
		sessions: newSessionManager(sessionRepo, issuer),
	}
}

func (u *federatedUsecase) AuthCodeURL(state string) (string, error) {
	if u.provider == nil {
		return "", provider.ErrNotConfigured
	}

	return u.provider.AuthCodeURL(state), nil
}

func (u *federatedUsecase) Login(ctx context.Context, code string, meta SessionMetadata) (*AuthResult, error) {
	if u.provider == nil {
		return nil, provider.ErrNotConfigured
	}

	profile, err := u.provider.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCode) || errors.Is(err, provider.ErrUnverifiedEmail) {
			return nil, fmt.Errorf("%w: %w", auth.ErrTokenInvalid, err)
		}
		return nil, err
	}

	user, err := u.Resolve(ctx, *profile)
	if err != nil {
		return nil, err
	}

	return u.sessions.start(ctx, user, meta)
}

func (u *federatedUsecase) Resolve(ctx context.Context, profile provider.Profile) (*model.User, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile.Email = NormalizeEmail(profile.Email)

	user, err := u.resolveExisting(ctx, profile)
	if !errors.Is(err, ErrUserNotFound) {
		return user, err
	}

	user, err = u.create(ctx, profile)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// Lost a race against a concurrent first login with the same email or subject.
		return u.resolveExisting(ctx, profile)
	}

	return user, err
}

// resolveExisting covers the first two resolution steps. It returns
// ErrUserNotFound when neither the subject nor the email is known.
func (u *federatedUsecase) resolveExisting(ctx context.Context, profile provider.Profile) (*model.User, error) {
	user, err := u.userRepo.GetUserByFederatedLink(ctx, profile.Provider, profile.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err = u.userRepo.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	return u.link(ctx, user, profile)
}

func (u *federatedUsecase) link(ctx context.Context, user *model.User, profile provider.Profile) (*model.User, error) {
	linked, err := u.userRepo.AddFederatedLink(ctx, user.ID.Hex(), newFederatedLink(profile))
	if err == nil {
		return linked, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, notFound(err, ErrUserNotFound)
	}

	holder, err := u.userRepo.GetUserByFederatedLink(ctx, profile.Provider, profile.Subject)
	if err != nil {
		return nil, notFound(err, ErrIdentityLinked)
	}
	if holder.ID != user.ID {
		return nil, ErrIdentityLinked
	}

	return holder, nil
}

func (u *federatedUsecase) create(ctx context.Context, profile provider.Profile) (*model.User, error) {
	// Federated-only accounts get a password nobody knows.
	passwordHash, err := u.hasher.HashUnusable()
	if err != nil {
		return nil, err
	}

	return u.userRepo.CreateUser(ctx, &model.User{
		FirstName:      profile.GivenName,
		LastName:       profile.FamilyName,
		Email:          profile.Email,
		PasswordHash:   passwordHash,
		Role:           auth.RoleUser,
		FederatedLinks: []model.FederatedLink{newFederatedLink(profile)},
	})
}

func newFederatedLink(profile provider.Profile) model.FederatedLink {
	return model.FederatedLink{
		Provider: profile.Provider,
		Subject:  profile.Subject,
		Email:    profile.Email,
		LinkedAt: time.Now(),
	}
}
