package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// SessionRepository stores sessions in memory, keyed by token hash.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

// NewSessionRepository creates an empty in-memory session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]model.Session)}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.TokenHash]; ok {
		return nil, repository.ErrDuplicateKey
	}

	session.ID = bson.NewObjectID()
	session.CreatedAt = time.Now()
	r.sessions[session.TokenHash] = *session

	return session, nil
}

func (r *SessionRepository) GetSessionByTokenHash(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if auth.Expired(session.ExpiresAt, now) {
		delete(r.sessions, tokenHash)
		return nil, repository.ErrNotFound
	}

	return &session, nil
}

func (r *SessionRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[tokenHash]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, tokenHash)

	return nil
}

func (r *SessionRepository) DeleteUserSessions(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for hash, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, hash)
			deleted++
		}
	}

	return deleted, nil
}
