package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
)

func (r *userMongoRepository) AddFriend(ctx context.Context, id, friendID string) (*model.User, error) {
	objectID, friendObjectID, err := parseFriendIDs(id, friendID)
	if err != nil {
		return nil, err
	}

	result, err := r.collection().UpdateOne(ctx,
		friendAbsentFilter(objectID, friendObjectID),
		bson.M{
			"$push": bson.M{"friends": friendObjectID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return nil, translateError(err)
	}

	user, err := r.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if result.MatchedCount == 0 {
		return nil, ErrNotModified
	}

	return user, nil
}

func (r *userMongoRepository) RemoveFriend(ctx context.Context, id, friendID string) (*model.User, error) {
	objectID, friendObjectID, err := parseFriendIDs(id, friendID)
	if err != nil {
		return nil, err
	}

	return r.findOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$pull": bson.M{"friends": friendObjectID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
}

func parseFriendIDs(id, friendID string) (bson.ObjectID, bson.ObjectID, error) {
	objectID, err := parseID(id)
	if err != nil {
		return bson.ObjectID{}, bson.ObjectID{}, err
	}

	friendObjectID, err := parseID(friendID)
	if err != nil {
		return bson.ObjectID{}, bson.ObjectID{}, err
	}

	return objectID, friendObjectID, nil
}

// friendAbsentFilter only matches while friendID is missing from the list, so
// concurrent adds of the same friend modify the document once.
func friendAbsentFilter(id, friendID bson.ObjectID) bson.M {
	return bson.M{"_id": id, "friends": bson.M{"$ne": friendID}}
}
