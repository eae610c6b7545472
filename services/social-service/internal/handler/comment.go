package handler

import (
	"net/http"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
)

func (h *httpHandler) createComment(w http.ResponseWriter, r *http.Request) {
	var req payload.CreateCommentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.usecases.Comment.CreateComment(r.Context(), actor(r.Context()), usecase.CommentParams{
		PostID:  req.PostID,
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.NewCommentResponse(comment))
}

func (h *httpHandler) listComments(w http.ResponseWriter, r *http.Request) {
	h.writeComments(w, r, usecase.ListParams{})
}

func (h *httpHandler) listPostComments(w http.ResponseWriter, r *http.Request) {
	postID := urlParam(r, "postID")
	h.writeComments(w, r, usecase.ListParams{PostID: &postID})
}

func (h *httpHandler) listUserComments(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "userID")
	h.writeComments(w, r, usecase.ListParams{UserID: &userID})
}

func (h *httpHandler) writeComments(w http.ResponseWriter, r *http.Request, params usecase.ListParams) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params.Limit = limit
	params.Offset = offset

	comments, err := h.usecases.Comment.ListComments(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewCommentResponses(comments))
}

func (h *httpHandler) getComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.usecases.Comment.GetComment(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewCommentResponse(comment))
}

func (h *httpHandler) updateComment(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdatePostRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.usecases.Comment.UpdateComment(
		r.Context(),
		actor(r.Context()),
		urlParam(r, "id"),
		usecase.UpdatePostParams{Content: req.Content, Images: req.Images},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewCommentResponse(comment))
}

func (h *httpHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.usecases.Comment.DeleteComment(r.Context(), actor(r.Context()), urlParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
