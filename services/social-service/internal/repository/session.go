package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
)

// SessionRepository defines the storage of server-side login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)

	// GetSessionByTokenHash returns the session unless it expired before now.
	GetSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.Session, error)

	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) (int64, error)
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

// NewSessionMongoRepository creates the sessions repository and ensures its indexes.
// Expired sessions are removed by a TTL index.
func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	if _, err := db.Collection(sessionCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	session.CreatedAt = time.Now()

	result, err := r.db.Collection(sessionCollection).InsertOne(ctx, session)
	if err != nil {
		return nil, translateError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		session.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return session, nil
}

func (r *sessionMongoRepository) GetSessionByTokenHash(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.Session, error) {
	var session model.Session
	err := r.db.Collection(sessionCollection).FindOne(ctx, activeSessionFilter(tokenHash, now)).Decode(&session)
	if err != nil {
		return nil, translateError(err)
	}

	return &session, nil
}

func (r *sessionMongoRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	result, err := r.db.Collection(sessionCollection).DeleteOne(ctx, bson.M{"token_hash": tokenHash})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *sessionMongoRepository) DeleteUserSessions(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

// activeSessionFilter matches the session with tokenHash unless it expired
// before now. The TTL monitor runs about once a minute, so expiry is checked
// here too, and a session is still valid at exactly its expiry.
func activeSessionFilter(tokenHash string, now time.Time) bson.M {
	return bson.M{
		"token_hash": tokenHash,
		"expires_at": bson.M{"$gte": now},
	}
}
