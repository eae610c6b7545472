package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
)

func (r *userMongoRepository) SetPasswordReset(ctx context.Context, id string, reset model.PasswordReset) error {
	objectID, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"password_reset": reset,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return translateError(err)
	}

	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userMongoRepository) GetUserByPasswordReset(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.User, error) {
	return r.findOne(ctx, pendingResetFilter(tokenHash, now))
}

func (r *userMongoRepository) ConsumePasswordReset(
	ctx context.Context,
	tokenHash string,
	now time.Time,
	passwordHash string,
) (*model.User, error) {
	// Single conditional write: the first caller clears password_reset,
	// so later callers no longer match the filter.
	return r.findOneAndUpdate(ctx, pendingResetFilter(tokenHash, now), consumeResetUpdate(passwordHash, now))
}

func consumeResetUpdate(passwordHash string, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    now,
		},
		"$unset": bson.M{"password_reset": ""},
	}
}

func pendingResetFilter(tokenHash string, now time.Time) bson.M {
	return bson.M{
		"password_reset.token_hash": tokenHash,
		"password_reset.expires_at": bson.M{"$gt": now},
	}
}
