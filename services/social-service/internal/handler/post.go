package handler

import (
	"net/http"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
)

func (h *httpHandler) createPost(w http.ResponseWriter, r *http.Request) {
	var req payload.CreatePostRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	post, err := h.usecases.Post.CreatePost(r.Context(), actor(r.Context()), usecase.PostParams{
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.NewPostResponse(post))
}

func (h *httpHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	h.writePosts(w, r, nil)
}

func (h *httpHandler) listUserPosts(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "userID")
	h.writePosts(w, r, &userID)
}

func (h *httpHandler) writePosts(w http.ResponseWriter, r *http.Request, userID *string) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	posts, err := h.usecases.Post.ListPosts(r.Context(), usecase.ListParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewPostResponses(posts))
}

func (h *httpHandler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.usecases.Post.GetPost(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewPostResponse(post))
}

func (h *httpHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdatePostRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	post, err := h.usecases.Post.UpdatePost(r.Context(), actor(r.Context()), urlParam(r, "id"), usecase.UpdatePostParams{
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewPostResponse(post))
}

func (h *httpHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.usecases.Post.DeletePost(r.Context(), actor(r.Context()), urlParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) likePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.usecases.Post.LikePost(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewPostResponse(post))
}
