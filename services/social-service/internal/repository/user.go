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
	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

// UserRepository defines the credential store used by the auth core and the
// user-management operations. Every method reports ErrNotFound distinctly
// from transient failures.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)

	// GetUserByFederatedLink finds the user linked to the provider subject.
	GetUserByFederatedLink(ctx context.Context, provider, subject string) (*model.User, error)

	// AddFederatedLink attaches link to the user unless the user already holds it.
	// It returns ErrDuplicateKey when another user holds the link.
	AddFederatedLink(ctx context.Context, id string, link model.FederatedLink) (*model.User, error)

	// SetPasswordReset stores reset on the user, replacing any pending one.
	SetPasswordReset(ctx context.Context, id string, reset model.PasswordReset) error

	// GetUserByPasswordReset finds the user whose pending reset has tokenHash
	// and is still valid at now.
	GetUserByPasswordReset(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)

	// ConsumePasswordReset replaces the password of the user whose pending reset
	// has tokenHash and is valid at now, clearing the reset in the same write.
	// Of several concurrent callers with the same token, exactly one succeeds.
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*model.User, error)

	// AddFriend appends friendID to the user's friends if absent.
	// It returns ErrNotModified when friendID was already there.
	AddFriend(ctx context.Context, id, friendID string) (*model.User, error)

	// RemoveFriend removes friendID from the user's friends.
	RemoveFriend(ctx context.Context, id, friendID string) (*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
	Address      *string
	Mobile       *string
	Role         *auth.Role
}

// IsEmpty reports whether no field is set.
func (p UpdateUserParams) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.PasswordHash == nil &&
		p.Address == nil && p.Mobile == nil && p.Role == nil
}

// FilterUsersParams defines the parameters for filtering and paginating users.
type FilterUsersParams struct {
	Role   *auth.Role
	Limit  uint64
	Offset uint64
}

// ErrNoFieldsToUpdate is returned by UpdateUser for empty params.
var ErrNoFieldsToUpdate = errors.New("no user fields to update")

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates the users repository and ensures its indexes.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "federated_links.provider", Value: 1},
				{Key: "federated_links.subject", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"federated_links.subject": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "password_reset.token_hash", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) collection() *mongo.Collection {
	return r.db.Collection(userCollection)
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	// Arrays must exist for $push to work on them later.
	if user.Friends == nil {
		user.Friends = []bson.ObjectID{}
	}
	if user.FederatedLinks == nil {
		user.FederatedLinks = []model.FederatedLink{}
	}

	result, err := r.collection().InsertOne(ctx, user)
	if err != nil {
		return nil, translateError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.collection().FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if params.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	// Build update query
	updateMap := bson.M{"updated_at": time.Now()}
	setIfPresent(updateMap, "first_name", params.FirstName)
	setIfPresent(updateMap, "last_name", params.LastName)
	setIfPresent(updateMap, "email", params.Email)
	setIfPresent(updateMap, "password_hash", params.PasswordHash)
	setIfPresent(updateMap, "address", params.Address)
	setIfPresent(updateMap, "mobile", params.Mobile)
	if params.Role != nil {
		updateMap["role"] = *params.Role
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": updateMap})
}

func setIfPresent(m bson.M, key string, value *string) {
	if value != nil {
		m[key] = *value
	}
}

func (r *userMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.User, error) {
	result := r.collection().FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}

func (r *userMongoRepository) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := r.collection().FindOneAndDelete(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}

func (r *userMongoRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	findOptions := options.Find()

	limit := params.Limit
	if limit == 0 {
		limit = 50
	}
	findOptions.SetLimit(int64(limit))

	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}
	findOptions.SetSort(bson.D{{Key: "created_at", Value: 1}})

	// Build filter query
	filter := bson.M{}
	if params.Role != nil {
		filter["role"] = *params.Role
	}

	cursor, err := r.collection().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]*model.User, 0)
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
