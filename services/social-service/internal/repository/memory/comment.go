package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
)

// CommentRepository stores comments in memory.
type CommentRepository struct {
	mu       sync.Mutex
	comments map[bson.ObjectID]*model.Comment
}

// NewCommentRepository creates an empty in-memory comment store.
func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[bson.ObjectID]*model.Comment)}
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	comment.ID = bson.NewObjectID()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	if comment.Images == nil {
		comment.Images = []string{}
	}

	stored := cloneComment(comment)
	r.comments[stored.ID] = stored

	return cloneComment(stored), nil
}

func (r *CommentRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	comment, err := r.get(id)
	if err != nil {
		return nil, err
	}

	return cloneComment(comment), nil
}

func (r *CommentRepository) ListComments(
	ctx context.Context,
	params repository.FilterCommentsParams,
) ([]*model.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	comments := make([]*model.Comment, 0, len(r.comments))
	for _, comment := range r.comments {
		if params.UserID != nil && comment.UserID.Hex() != *params.UserID {
			continue
		}
		if params.PostID != nil && comment.PostID.Hex() != *params.PostID {
			continue
		}
		comments = append(comments, cloneComment(comment))
	}

	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID.Hex() > comments[j].ID.Hex()
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})

	return paginate(comments, params.Offset, params.Limit), nil
}

func (r *CommentRepository) UpdateComment(
	ctx context.Context,
	id string,
	params repository.UpdateCommentParams,
) (*model.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	comment, err := r.get(id)
	if err != nil {
		return nil, err
	}

	assignIfPresent(&comment.Content, params.Content)
	if params.Images != nil {
		comment.Images = slices.Clone(*params.Images)
	}
	comment.UpdatedAt = time.Now()

	return cloneComment(comment), nil
}

func (r *CommentRepository) DeleteComment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	comment, err := r.get(id)
	if err != nil {
		return err
	}
	delete(r.comments, comment.ID)

	return nil
}

func (r *CommentRepository) get(id string) (*model.Comment, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	comment, ok := r.comments[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return comment, nil
}

func cloneComment(comment *model.Comment) *model.Comment {
	clone := *comment
	clone.Images = slices.Clone(comment.Images)
	return &clone
}
