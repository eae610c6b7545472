package usecase

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
)

// PostUsecase defines post operations. Mutations follow the ownership rule.
type PostUsecase interface {
	CreatePost(ctx context.Context, actor authz.Actor, params PostParams) (*model.Post, error)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, params ListParams) ([]*model.Post, error)
	UpdatePost(ctx context.Context, actor authz.Actor, id string, params UpdatePostParams) (*model.Post, error)
	DeletePost(ctx context.Context, actor authz.Actor, id string) error
	LikePost(ctx context.Context, id string) (*model.Post, error)
}

// PostParams defines the content of a new post.
type PostParams struct {
	Content string
	Images  []string
}

// UpdatePostParams defines the optional fields of a post update.
type UpdatePostParams struct {
	Content *string
	Images  *[]string
}

// ListParams filters and paginates post and comment listings.
type ListParams struct {
	UserID *string
	PostID *string
	Limit  uint64
	Offset uint64
}

type postUsecase struct {
	postRepo repository.PostRepository
}

// NewPostUsecase creates a new instance of PostUsecase.
func NewPostUsecase(postRepo repository.PostRepository) PostUsecase {
	return &postUsecase{postRepo: postRepo}
}

func (u *postUsecase) CreatePost(ctx context.Context, actor authz.Actor, params PostParams) (*model.Post, error) {
	authorID, err := actorObjectID(actor)
	if err != nil {
		return nil, err
	}

	return u.postRepo.CreatePost(ctx, &model.Post{
		UserID:  authorID,
		Content: params.Content,
		Images:  params.Images,
	})
}

func (u *postUsecase) GetPost(ctx context.Context, id string) (*model.Post, error) {
	post, err := u.postRepo.GetPost(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	return post, nil
}

func (u *postUsecase) ListPosts(ctx context.Context, params ListParams) ([]*model.Post, error) {
	return u.postRepo.ListPosts(ctx, repository.FilterPostsParams{
		UserID: params.UserID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (u *postUsecase) UpdatePost(
	ctx context.Context,
	actor authz.Actor,
	id string,
	params UpdatePostParams,
) (*model.Post, error) {
	if params.Content == nil && params.Images == nil {
		return nil, ErrNothingToUpdate
	}

	if err := u.authorize(ctx, actor, authz.ActionUpdate, id); err != nil {
		return nil, err
	}

	post, err := u.postRepo.UpdatePost(ctx, id, repository.UpdatePostParams{
		Content: params.Content,
		Images:  params.Images,
	})
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	return post, nil
}

func (u *postUsecase) DeletePost(ctx context.Context, actor authz.Actor, id string) error {
	if err := u.authorize(ctx, actor, authz.ActionDelete, id); err != nil {
		return err
	}

	return notFound(u.postRepo.DeletePost(ctx, id), ErrPostNotFound)
}

func (u *postUsecase) LikePost(ctx context.Context, id string) (*model.Post, error) {
	post, err := u.postRepo.IncrementLikes(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	return post, nil
}

func (u *postUsecase) authorize(ctx context.Context, actor authz.Actor, action authz.Action, id string) error {
	post, err := u.GetPost(ctx, id)
	if err != nil {
		return err
	}

	return authz.Authorize(actor, action, post.UserID.Hex())
}

// actorObjectID returns the actor's id as stored on authored documents.
func actorObjectID(actor authz.Actor) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(actor.ID)
	if err != nil {
		return bson.ObjectID{}, auth.ErrTokenInvalid
	}
	return id, nil
}
