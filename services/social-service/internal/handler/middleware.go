package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
	"github.com/vasapolrittideah/social-network-api/shared/interceptor"
)

const requestIDHeader = "X-Request-ID"

// requestID tags the request logger and the response with a request id,
// reusing the caller's id when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("request_id", id)
		})

		next.ServeHTTP(w, r)
	})
}

var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request handled")
})

// requireAuth authenticates the request with a bearer token or, failing
// that, the session cookie. The bearer header wins when both are present.
func (h *httpHandler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", claims.UserID())
		})

		next.ServeHTTP(w, r.WithContext(interceptor.WithClaims(r.Context(), claims)))
	})
}

func (h *httpHandler) authenticate(r *http.Request) (*auth.Claims, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, err := interceptor.ParseBearer(header)
		if err != nil {
			return nil, err
		}
		return h.usecases.Auth.VerifyToken(token)
	}

	if cookie, err := r.Cookie(h.config.CookieName); err == nil && cookie.Value != "" {
		return h.usecases.Auth.ResolveSession(r.Context(), cookie.Value)
	}

	return nil, interceptor.ErrMissingCredentials
}

// actor returns the authenticated actor set by requireAuth.
func actor(ctx context.Context) authz.Actor {
	claims, _ := interceptor.ClaimsFromContext(ctx)
	return authz.ActorFromClaims(claims)
}
