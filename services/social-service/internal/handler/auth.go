package handler

import (
	"net/http"
	"time"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
)

func (h *httpHandler) register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.usecases.Auth.Register(r.Context(), usecase.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Address:   req.Address,
		Mobile:    req.Mobile,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.NewUserResponse(user))
}

func (h *httpHandler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.usecases.Auth.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		Metadata: sessionMetadata(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, result)
	writeJSON(w, http.StatusOK, loginResponse(result))
}

func (h *httpHandler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.config.CookieName); err == nil {
		if err := h.usecases.Auth.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}

	h.clearCookie(w, h.config.CookieName, "/")
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *httpHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.usecases.PasswordReset.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "if the email is registered, a password reset link has been sent")
}

func (h *httpHandler) validatePasswordResetToken(w http.ResponseWriter, r *http.Request) {
	if err := h.usecases.PasswordReset.ValidatePasswordResetToken(r.Context(), urlParam(r, "token")); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "password reset token is valid")
}

func (h *httpHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.usecases.PasswordReset.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "password has been reset")
}

func loginResponse(result *usecase.AuthResult) payload.LoginResponse {
	return payload.LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.Claims.ExpiresAt.Time,
		User:        payload.NewUserResponse(result.User),
	}
}

func sessionMetadata(r *http.Request) usecase.SessionMetadata {
	return usecase.SessionMetadata{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

func (h *httpHandler) setSessionCookie(w http.ResponseWriter, result *usecase.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    result.SessionToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  result.Claims.ExpiresAt.Time,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *httpHandler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   h.config.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
