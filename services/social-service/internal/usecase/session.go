package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

// sessionTokenBytes is the entropy of a raw session token.
const sessionTokenBytes = 32

// SessionMetadata describes the client a session is opened for.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// AuthResult is what a successful login hands back to the transport layer:
// a bearer token and a session token carrying the same claims.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	Claims       *auth.Claims
	SessionToken string
}

// sessionManager issues access tokens and opens server-side sessions.
type sessionManager struct {
	sessionRepo repository.SessionRepository
	issuer      *auth.TokenIssuer
	now         func() time.Time
}

func newSessionManager(sessionRepo repository.SessionRepository, issuer *auth.TokenIssuer) *sessionManager {
	return &sessionManager{
		sessionRepo: sessionRepo,
		issuer:      issuer,
		now:         time.Now,
	}
}

func (m *sessionManager) start(ctx context.Context, user *model.User, meta SessionMetadata) (*AuthResult, error) {
	accessToken, claims, err := m.issuer.Issue(user.Subject())
	if err != nil {
		return nil, err
	}

	sessionToken, err := security.GenerateRandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		TokenHash: security.HashToken(sessionToken),
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		IPAddress: optional(meta.IPAddress),
		UserAgent: optional(meta.UserAgent),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if _, err := m.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		Claims:       claims,
		SessionToken: sessionToken,
	}, nil
}

func (m *sessionManager) resolve(ctx context.Context, sessionToken string) (*auth.Claims, error) {
	if sessionToken == "" {
		return nil, auth.ErrTokenInvalid
	}

	session, err := m.sessionRepo.GetSessionByTokenHash(ctx, security.HashToken(sessionToken), m.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrTokenInvalid
		}
		return nil, err
	}

	return session.Claims(), nil
}

func (m *sessionManager) destroy(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	err := m.sessionRepo.DeleteSessionByTokenHash(ctx, security.HashToken(sessionToken))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}

	return err
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
