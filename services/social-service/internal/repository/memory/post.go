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

// PostRepository stores posts in memory.
type PostRepository struct {
	mu    sync.Mutex
	posts map[bson.ObjectID]*model.Post
}

// NewPostRepository creates an empty in-memory post store.
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[bson.ObjectID]*model.Post)}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	post.ID = bson.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Images == nil {
		post.Images = []string{}
	}

	stored := clonePost(post)
	r.posts[stored.ID] = stored

	return clonePost(stored), nil
}

func (r *PostRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, err := r.get(id)
	if err != nil {
		return nil, err
	}

	return clonePost(post), nil
}

func (r *PostRepository) ListPosts(ctx context.Context, params repository.FilterPostsParams) ([]*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	posts := make([]*model.Post, 0, len(r.posts))
	for _, post := range r.posts {
		if params.UserID != nil && post.UserID.Hex() != *params.UserID {
			continue
		}
		posts = append(posts, clonePost(post))
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID.Hex() > posts[j].ID.Hex()
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	return paginate(posts, params.Offset, params.Limit), nil
}

func (r *PostRepository) UpdatePost(
	ctx context.Context,
	id string,
	params repository.UpdatePostParams,
) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, err := r.get(id)
	if err != nil {
		return nil, err
	}

	assignIfPresent(&post.Content, params.Content)
	if params.Images != nil {
		post.Images = slices.Clone(*params.Images)
	}
	post.UpdatedAt = time.Now()

	return clonePost(post), nil
}

func (r *PostRepository) DeletePost(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, err := r.get(id)
	if err != nil {
		return err
	}
	delete(r.posts, post.ID)

	return nil
}

func (r *PostRepository) IncrementLikes(ctx context.Context, id string) (*model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, err := r.get(id)
	if err != nil {
		return nil, err
	}
	post.Likes++

	return clonePost(post), nil
}

func (r *PostRepository) get(id string) (*model.Post, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	post, ok := r.posts[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return post, nil
}

func clonePost(post *model.Post) *model.Post {
	clone := *post
	clone.Images = slices.Clone(post.Images)
	return &clone
}
