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

// CommentRepository defines the storage of comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, params FilterCommentsParams) ([]*model.Comment, error)
	UpdateComment(ctx context.Context, id string, params UpdateCommentParams) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// FilterCommentsParams narrows ListComments. Results are newest first.
type FilterCommentsParams struct {
	UserID *string
	PostID *string
	Limit  uint64
	Offset uint64
}

// UpdateCommentParams defines the optional parameters for updating a comment.
type UpdateCommentParams struct {
	Content *string
	Images  *[]string
}

const commentCollection = "comments"

type commentMongoRepository struct {
	db *mongo.Database
}

// NewCommentMongoRepository creates the comments repository and ensures its indexes.
func NewCommentMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) CommentRepository {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	if _, err := db.Collection(commentCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create comment indexes")
	}

	return &commentMongoRepository{db: db}
}

func (r *commentMongoRepository) CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	if comment.Images == nil {
		comment.Images = []string{}
	}

	result, err := r.db.Collection(commentCollection).InsertOne(ctx, comment)
	if err != nil {
		return nil, translateError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		comment.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return comment, nil
}

func (r *commentMongoRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var comment model.Comment
	if err := r.db.Collection(commentCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&comment); err != nil {
		return nil, translateError(err)
	}

	return &comment, nil
}

func (r *commentMongoRepository) ListComments(
	ctx context.Context,
	params FilterCommentsParams,
) ([]*model.Comment, error) {
	filter := bson.M{}
	for key, value := range map[string]*string{"user_id": params.UserID, "post_id": params.PostID} {
		if value == nil {
			continue
		}
		objectID, err := parseID(*value)
		if err != nil {
			return []*model.Comment{}, nil
		}
		filter[key] = objectID
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(defaultLimit(params.Limit)))
	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}

	cursor, err := r.db.Collection(commentCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}

	comments := make([]*model.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentMongoRepository) UpdateComment(
	ctx context.Context,
	id string,
	params UpdateCommentParams,
) (*model.Comment, error) {
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

	result := r.db.Collection(commentCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var comment model.Comment
	if err := result.Decode(&comment); err != nil {
		return nil, translateError(err)
	}

	return &comment, nil
}

func (r *commentMongoRepository) DeleteComment(ctx context.Context, id string) error {
	objectID, err := parseID(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(commentCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
