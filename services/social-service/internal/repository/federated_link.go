package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
)

func (r *userMongoRepository) GetUserByFederatedLink(
	ctx context.Context,
	provider string,
	subject string,
) (*model.User, error) {
	return r.findOne(ctx, bson.M{"federated_links": linkMatch(provider, subject)})
}

func (r *userMongoRepository) AddFederatedLink(
	ctx context.Context,
	id string,
	link model.FederatedLink,
) (*model.User, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if link.LinkedAt.IsZero() {
		link.LinkedAt = time.Now()
	}

	// The $not/$elemMatch guard keeps a second call from appending the same link;
	// the unique index rejects links held by another user.
	user, err := r.findOneAndUpdate(ctx,
		linkAbsentFilter(objectID, link),
		bson.M{
			"$push": bson.M{"federated_links": link},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if errors.Is(err, ErrNotFound) {
		// Either the user is gone or it already holds the link.
		return r.GetUser(ctx, id)
	}

	return user, err
}

func linkMatch(provider, subject string) bson.M {
	return bson.M{"$elemMatch": bson.M{
		"provider": provider,
		"subject":  subject,
	}}
}

// linkAbsentFilter matches the user only while it does not hold link yet.
func linkAbsentFilter(id bson.ObjectID, link model.FederatedLink) bson.M {
	return bson.M{
		"_id":             id,
		"federated_links": bson.M{"$not": linkMatch(link.Provider, link.Subject)},
	}
}
