package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	Logout(ctx context.Context, sessionToken string) error

	// VerifyToken checks a bearer token.
	VerifyToken(token string) (*auth.Claims, error)

	// ResolveSession returns the claims of a live server-side session.
	ResolveSession(ctx context.Context, sessionToken string) (*auth.Claims, error)
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
	Metadata SessionMetadata
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Address   string
	Mobile    string
}

type authUsecase struct {
	userRepo repository.UserRepository
	hasher   *security.PasswordHasher
	issuer   *auth.TokenIssuer
	sessions *sessionManager
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher *security.PasswordHasher,
	issuer *auth.TokenIssuer,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		sessions: newSessionManager(sessionRepo, issuer),
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Email:        NormalizeEmail(params.Email),
		PasswordHash: passwordHash,
		Address:      params.Address,
		Mobile:       params.Mobile,
		Role:         auth.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}

		return nil, err
	}

	return user, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			u.hasher.VerifyAbsent(params.Password)
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !u.hasher.Verify(params.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return u.sessions.start(ctx, user, params.Metadata)
}

func (u *authUsecase) Logout(ctx context.Context, sessionToken string) error {
	return u.sessions.destroy(ctx, sessionToken)
}

func (u *authUsecase) VerifyToken(token string) (*auth.Claims, error) {
	return u.issuer.Verify(token)
}

func (u *authUsecase) ResolveSession(ctx context.Context, sessionToken string) (*auth.Claims, error) {
	return u.sessions.resolve(ctx, sessionToken)
}

// NormalizeEmail lower-cases and trims an email address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
