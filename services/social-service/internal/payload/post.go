package payload

import (
	"time"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
)

type CreatePostRequest struct {
	Content string   `json:"content" validate:"required,max=5000"`
	Images  []string `json:"images"  validate:"omitempty,max=10,dive,url"`
}

type UpdatePostRequest struct {
	Content *string   `json:"content" validate:"omitempty,min=1,max=5000"`
	Images  *[]string `json:"images"  validate:"omitempty,max=10,dive,url"`
}

type CreateCommentRequest struct {
	PostID  string   `json:"post_id" validate:"required,objectid"`
	Content string   `json:"content" validate:"required,max=2000"`
	Images  []string `json:"images"  validate:"omitempty,max=4,dive,url"`
}

type PostResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Images    []string  `json:"images"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPostResponse(post *model.Post) PostResponse {
	return PostResponse{
		ID:        post.ID.Hex(),
		UserID:    post.UserID.Hex(),
		Content:   post.Content,
		Images:    nonNil(post.Images),
		Likes:     post.Likes,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func NewPostResponses(posts []*model.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, NewPostResponse(post))
	}
	return out
}

func NewCommentResponse(comment *model.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID.Hex(),
		UserID:    comment.UserID.Hex(),
		PostID:    comment.PostID.Hex(),
		Content:   comment.Content,
		Images:    nonNil(comment.Images),
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

func NewCommentResponses(comments []*model.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment))
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
