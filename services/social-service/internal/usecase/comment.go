package usecase

import (
	"context"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
)

// CommentUsecase defines comment operations. Mutations follow the ownership rule.
type CommentUsecase interface {
	CreateComment(ctx context.Context, actor authz.Actor, params CommentParams) (*model.Comment, error)
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, params ListParams) ([]*model.Comment, error)
	UpdateComment(ctx context.Context, actor authz.Actor, id string, params UpdatePostParams) (*model.Comment, error)
	DeleteComment(ctx context.Context, actor authz.Actor, id string) error
}

// CommentParams defines the content of a new comment.
type CommentParams struct {
	PostID  string
	Content string
	Images  []string
}

type commentUsecase struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

// NewCommentUsecase creates a new instance of CommentUsecase.
func NewCommentUsecase(commentRepo repository.CommentRepository, postRepo repository.PostRepository) CommentUsecase {
	return &commentUsecase{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (u *commentUsecase) CreateComment(
	ctx context.Context,
	actor authz.Actor,
	params CommentParams,
) (*model.Comment, error) {
	authorID, err := actorObjectID(actor)
	if err != nil {
		return nil, err
	}

	post, err := u.postRepo.GetPost(ctx, params.PostID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}

	return u.commentRepo.CreateComment(ctx, &model.Comment{
		UserID:  authorID,
		PostID:  post.ID,
		Content: params.Content,
		Images:  params.Images,
	})
}

func (u *commentUsecase) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := u.commentRepo.GetComment(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}

	return comment, nil
}

func (u *commentUsecase) ListComments(ctx context.Context, params ListParams) ([]*model.Comment, error) {
	return u.commentRepo.ListComments(ctx, repository.FilterCommentsParams{
		UserID: params.UserID,
		PostID: params.PostID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (u *commentUsecase) UpdateComment(
	ctx context.Context,
	actor authz.Actor,
	id string,
	params UpdatePostParams,
) (*model.Comment, error) {
	if params.Content == nil && params.Images == nil {
		return nil, ErrNothingToUpdate
	}

	if err := u.authorize(ctx, actor, authz.ActionUpdate, id); err != nil {
		return nil, err
	}

	comment, err := u.commentRepo.UpdateComment(ctx, id, repository.UpdateCommentParams{
		Content: params.Content,
		Images:  params.Images,
	})
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}

	return comment, nil
}

func (u *commentUsecase) DeleteComment(ctx context.Context, actor authz.Actor, id string) error {
	if err := u.authorize(ctx, actor, authz.ActionDelete, id); err != nil {
		return err
	}

	return notFound(u.commentRepo.DeleteComment(ctx, id), ErrCommentNotFound)
}

func (u *commentUsecase) authorize(ctx context.Context, actor authz.Actor, action authz.Action, id string) error {
	comment, err := u.GetComment(ctx, id)
	if err != nil {
		return err
	}

	return authz.Authorize(actor, action, comment.UserID.Hex())
}
