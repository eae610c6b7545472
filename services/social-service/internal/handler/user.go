package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func (h *httpHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	params := usecase.ListUsersParams{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role := auth.Role(raw)
		if !role.Valid() {
			writeError(w, r, usecase.ErrInvalidRole)
			return
		}
		params.Role = &role
	}

	users, err := h.usecases.User.ListUsers(r.Context(), actor(r.Context()), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponses(users))
}

func (h *httpHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.usecases.User.GetUser(r.Context(), actor(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *httpHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.usecases.User.GetUser(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *httpHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateUserRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.usecases.User.UpdateUser(r.Context(), actor(r.Context()), urlParam(r, "id"), usecase.UpdateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Address:   req.Address,
		Mobile:    req.Mobile,
		Role:      req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *httpHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	claims := actor(r.Context())
	id := urlParam(r, "id")

	if err := h.usecases.User.DeleteUser(r.Context(), claims, id); err != nil {
		writeError(w, r, err)
		return
	}

	if claims.ID == id {
		h.clearCookie(w, h.config.CookieName, "/")
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) addFriend(w http.ResponseWriter, r *http.Request) {
	var req payload.AddFriendRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.usecases.User.AddFriend(r.Context(), actor(r.Context()), req.FriendID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *httpHandler) removeFriend(w http.ResponseWriter, r *http.Request) {
	user, err := h.usecases.User.RemoveFriend(r.Context(), actor(r.Context()), urlParam(r, "friendID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}
