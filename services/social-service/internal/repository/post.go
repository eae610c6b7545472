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

// PostRepository defines the storage of posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) (*model.Post, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, params FilterPostsParams) ([]*model.Post, error)
	UpdatePost(ctx context.Context, id string, params UpdatePostParams) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) (*model.Post, error)
}

// FilterPostsParams narrows ListPosts. Results are newest first.
type FilterPostsParams struct {
	UserID *string
	Limit  uint64
	Offset uint64
}

// UpdatePostParams defines the optional parameters for updating a post.
type UpdatePostParams struct {
	Content *string
	Images  *[]string
}

const postCollection = "posts"

type postMongoRepository struct {
	db *mongo.Database
}

// NewPostMongoRepository creates the posts repository and ensures its indexes.
func NewPostMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) PostRepository {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	if _, err := db.Collection(postCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create post indexes")
	}

	return &postMongoRepository{db: db}
}

func (r *postMongoRepository) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Images == nil {
		post.Images = []string{}
	}

	result, err := r.db.Collection(postCollection).InsertOne(ctx, post)
	if err != nil {
		return nil, translateError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		post.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return post, nil
}

func (r *postMongoRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var post model.Post
	if err := r.db.Collection(postCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&post); err != nil {
		return nil, translateError(err)
	}

	return &post, nil
}

func (r *postMongoRepository) ListPosts(ctx context.Context, params FilterPostsParams) ([]*model.Post, error) {
	filter := bson.M{}
	if params.UserID != nil {
		userID, err := parseID(*params.UserID)
		if err != nil {
			return []*model.Post{}, nil
		}
		filter["user_id"] = userID
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(defaultLimit(params.Limit)))
	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}

	cursor, err := r.db.Collection(postCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}

	posts := make([]*model.Post, 0)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postMongoRepository) UpdatePost(ctx context.Context, id string, params UpdatePostParams) (*model.Post, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{"updated_at": time.Now()}
	if params.Content != nil {
		updateMap["content"] = *params.Content
	}
	if params.Images != nil {
		updateMap["images"] = *params.Images
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": updateMap})
}

func (r *postMongoRepository) DeletePost(ctx context.Context, id string) error {
	objectID, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(postCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postMongoRepository) IncrementLikes(ctx context.Context, id string) (*model.Post, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$inc": bson.M{"likes": 1}})
}

func (r *postMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.Post, error) {
	result := r.db.Collection(postCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var post model.Post
	if err := result.Decode(&post); err != nil {
		return nil, translateError(err)
	}

	return &post, nil
}

func defaultLimit(limit uint64) uint64 {
	if limit == 0 {
		return 50
	}
	return limit
}
