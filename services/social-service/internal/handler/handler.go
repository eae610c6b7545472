package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/social-network-api/shared/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Config holds the HTTP concerns the handlers need from the service config.
type Config struct {
	FrontendURL  string
	CookieName   string
	CookieSecure bool
	CookieDomain string
}

// Usecases groups the business logic the HTTP handlers delegate to.
type Usecases struct {
	Auth          usecase.AuthUsecase
	PasswordReset usecase.PasswordResetUsecase
	Federated     usecase.FederatedUsecase
	User          usecase.UserUsecase
	Post          usecase.PostUsecase
	Comment       usecase.CommentUsecase
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type httpHandler struct {
	config    Config
	usecases  Usecases
	validator *validation.Validator
	health    HealthCheck
	logger    *zerolog.Logger
}

// NewHTTPHandler builds the REST router of the social service.
func NewHTTPHandler(
	config Config,
	usecases Usecases,
	validator *validation.Validator,
	health HealthCheck,
	logger *zerolog.Logger,
) http.Handler {
	h := &httpHandler{
		config:    config,
		usecases:  usecases,
		validator: validator,
		health:    health,
		logger:    logger,
	}

	return h.routes()
}

func (h *httpHandler) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(*h.logger))
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{originOf(h.config.FrontendURL)},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.healthz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/forgot-password", h.forgotPassword)
		r.Get("/reset-password/{token}", h.validatePasswordResetToken)
		r.Post("/reset-password", h.resetPassword)
		r.Get("/google", h.googleStart)
		r.Get("/google/callback", h.googleCallback)

		r.With(h.requireAuth).Post("/logout", h.logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.register)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/", h.listUsers)
			r.Get("/profile", h.profile)
			r.Post("/friends", h.addFriend)
			r.Delete("/friends/{friendID}", h.removeFriend)
			r.Get("/{id}", h.getUser)
			r.Patch("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.listPosts)
		r.Get("/user/{userID}", h.listUserPosts)
		r.Get("/{id}", h.getPost)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/", h.createPost)
			r.Patch("/{id}", h.updatePost)
			r.Delete("/{id}", h.deletePost)
			r.Post("/{id}/like", h.likePost)
		})
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.listComments)
		r.Get("/post/{postID}", h.listPostComments)
		r.Get("/user/{userID}", h.listUserComments)
		r.Get("/{id}", h.getComment)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/", h.createComment)
			r.Patch("/{id}", h.updateComment)
			r.Delete("/{id}", h.deleteComment)
		})
	})

	return r
}

func (h *httpHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.health(ctx); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errMalformedBody = errors.New("malformed request body")

// decode reads a JSON body into dst and validates it.
func (h *httpHandler) decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	return h.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.MessageResponse{Message: message})
}

var errInvalidPagination = errors.New("invalid pagination")

// Pagination bounds. Offsets stay well inside int64, which the store's skip uses.
const (
	maxPageLimit  = 100
	maxPageOffset = math.MaxInt32
)

// pagination reads the limit and offset query parameters.
func pagination(r *http.Request) (limit, offset uint64, err error) {
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		if limit, err = strconv.ParseUint(raw, 10, 64); err != nil || limit > maxPageLimit {
			return 0, 0, errInvalidPagination
		}
	}

	if raw := query.Get("offset"); raw != "" {
		if offset, err = strconv.ParseUint(raw, 10, 64); err != nil || offset > maxPageOffset {
			return 0, 0, errInvalidPagination
		}
	}

	return limit, offset, nil
}

// originOf reduces the front-end URL to the scheme and host a browser sends
// in the Origin header.
func originOf(frontendURL string) string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return frontendURL
	}
	return u.Scheme + "://" + u.Host
}
