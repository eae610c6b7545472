package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
	"github.com/vasapolrittideah/social-network-api/shared/interceptor"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
	"github.com/vasapolrittideah/social-network-api/shared/validation"
)

// writeError maps an error to its status code. Unexpected errors are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Error:  "validation failed",
			Fields: fieldErrs,
		})
		return
	}

	status, message := statusOf(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, payload.ErrorResponse{Error: message})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformedBody), errors.Is(err, errInvalidPagination):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "token has expired"
	case errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, interceptor.ErrMissingCredentials),
		errors.Is(err, interceptor.ErrInvalidHeaderFormat):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, usecase.ErrResetTokenNotFoundOrExpired):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, provider.ErrNotConfigured):
		return http.StatusNotImplemented, err.Error()
	default:
		return http.StatusInternalServerError, "something went wrong"
	}
}
