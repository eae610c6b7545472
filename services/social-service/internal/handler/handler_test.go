package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/matthewhartstonge/argon2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/payload"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository/memory"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
	"github.com/vasapolrittideah/social-network-api/shared/security"
	"github.com/vasapolrittideah/social-network-api/shared/validation"
)

const (
	testCookieName  = "test_session"
	testFrontendURL = "http://frontend.test/app"
)

type nopMailer struct{}

func (nopMailer) SendHTML([]string, string, string) error { return nil }

type stubProvider struct {
	profile *provider.Profile
}

func (p *stubProvider) Name() string { return provider.ProviderGoogle }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*provider.Profile, error) {
	if code != "good-code" {
		return nil, provider.ErrInvalidCode
	}
	return p.profile, nil
}

type testServer struct {
	router   http.Handler
	users    *memory.UserRepository
	issuer   *auth.TokenIssuer
	usecases Usecases
	healthy  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	config := argon2.DefaultConfig()
	config.MemoryCost = 8 * 1024
	config.TimeCost = 1
	config.Parallelism = 1
	hasher := security.NewPasswordHasher(config)

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:    "handler-test-secret-at-least-32-bytes",
		ExpiresIn: time.Hour,
		Issuer:    "social-service",
	})
	require.NoError(t, err)

	validator, err := validation.New()
	require.NoError(t, err)

	users := memory.NewUserRepository()
	sessions := memory.NewSessionRepository()
	posts := memory.NewPostRepository()
	comments := memory.NewCommentRepository()

	oauth := &stubProvider{profile: &provider.Profile{
		Provider:   provider.ProviderGoogle,
		Subject:    "google-sub",
		Email:      "gina@example.com",
		GivenName:  "Gina",
		FamilyName: "Google",
	}}

	s := &testServer{users: users, issuer: issuer}
	s.usecases = Usecases{
		Auth: usecase.NewAuthUsecase(users, sessions, hasher, issuer),
		PasswordReset: usecase.NewPasswordResetUsecase(users, hasher, nopMailer{}, usecase.PasswordResetConfig{
			ResetURL:  testFrontendURL + "/reset-password",
			ExpiresIn: time.Hour,
		}),
		Federated: usecase.NewFederatedUsecase(users, sessions, hasher, issuer, oauth),
		User:      usecase.NewUserUsecase(users, sessions, hasher),
		Post:      usecase.NewPostUsecase(posts),
		Comment:   usecase.NewCommentUsecase(comments, posts),
	}

	logger := zerolog.Nop()
	s.router = NewHTTPHandler(Config{
		FrontendURL: testFrontendURL,
		CookieName:  testCookieName,
	}, s.usecases, validator, func(context.Context) error { return s.healthy }, &logger)

	return s
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(cookie *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(cookie) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// signUp registers and logs in a user, returning its id, bearer token and session cookie.
func (s *testServer) signUp(t *testing.T, email string) (string, string, *http.Cookie) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/users", payload.RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "pw123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeBody[payload.UserResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/auth/login", payload.LoginRequest{Email: email, Password: "pw123456"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[payload.LoginResponse](t, rec)

	cookie := findCookie(rec, testCookieName)
	require.NotNil(t, cookie)

	return user.ID, login.AccessToken, cookie
}

func (s *testServer) makeAdmin(t *testing.T, id string) {
	t.Helper()

	role := auth.RoleAdmin
	_, err := s.users.UpdateUser(context.Background(), id, repository.UpdateUserParams{Role: &role})
	require.NoError(t, err)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users", payload.RegisterRequest{
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "Alice@Example.com",
		Password:  "pw123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	user := decodeBody[payload.UserResponse](t, rec)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, auth.RoleUser, user.Role)

	rec = s.do(t, http.MethodPost, "/users", payload.RegisterRequest{
		FirstName: "Alice",
		LastName:  "Again",
		Email:     "alice@example.com",
		Password:  "pw123456",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/users", map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[payload.ErrorResponse](t, rec)
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "first_name")

	rec = s.do(t, http.MethodPost, "/users", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	id, token, cookie := s.signUp(t, "alice@example.com")

	claims, err := s.issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID())
	assert.Equal(t, auth.RoleUser, claims.Role)
	assert.True(t, cookie.HttpOnly)

	rec := s.do(t, http.MethodPost, "/auth/login", payload.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", payload.LoginRequest{Email: "bob@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeBody[payload.ErrorResponse](t, rec).Error)
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	id, token, cookie := s.signUp(t, "alice@example.com")

	tests := []struct {
		name   string
		opts   []requestOption
		status int
	}{
		{"bearer", []requestOption{withBearer(token)}, http.StatusOK},
		{"session cookie", []requestOption{withCookie(cookie)}, http.StatusOK},
		{"no credentials", nil, http.StatusUnauthorized},
		{"bad bearer", []requestOption{withBearer("garbage")}, http.StatusUnauthorized},
		{"bad bearer wins over good cookie", []requestOption{withBearer("garbage"), withCookie(cookie)}, http.StatusUnauthorized},
		{"unknown session", []requestOption{withCookie(&http.Cookie{Name: testCookieName, Value: "nope"})}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/users/profile", nil, tt.opts...)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status == http.StatusOK {
				assert.Equal(t, id, decodeBody[payload.UserResponse](t, rec).ID)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	_, _, cookie := s.signUp(t, "alice@example.com")

	rec := s.do(t, http.MethodPost, "/auth/logout", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := findCookie(rec, testCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = s.do(t, http.MethodGet, "/users/profile", nil, withCookie(cookie))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordIsUniform(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.signUp(t, "alice@example.com")

	known := s.do(t, http.MethodPost, "/auth/forgot-password", payload.ForgotPasswordRequest{Email: "alice@example.com"})
	unknown := s.do(t, http.MethodPost, "/auth/forgot-password", payload.ForgotPasswordRequest{Email: "ghost@example.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.signUp(t, "alice@example.com")

	token, err := s.usecases.PasswordReset.CreatePasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/auth/reset-password/"+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := payload.ResetPasswordRequest{Token: token, NewPassword: "newpw1"}
	rec = s.do(t, http.MethodPost, "/auth/reset-password", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/reset-password", req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/reset-password/"+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", payload.LoginRequest{Email: "alice@example.com", Password: "newpw1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserAuthorization(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	aliceID, aliceToken, _ := s.signUp(t, "alice@example.com")
	bobID, bobToken, _ := s.signUp(t, "bob@example.com")
	adminID, _, _ := s.signUp(t, "admin@example.com")
	s.makeAdmin(t, adminID)

	// Role is baked into tokens, so the admin logs in again after promotion.
	rec := s.do(t, http.MethodPost, "/auth/login", payload.LoginRequest{Email: "admin@example.com", Password: "pw123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	adminToken := decodeBody[payload.LoginResponse](t, rec).AccessToken

	rec = s.do(t, http.MethodGet, "/users", nil, withBearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/users?limit=2", nil, withBearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]payload.UserResponse](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/users?limit=abc", nil, withBearer(adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/users/"+bobID, map[string]string{"first_name": "Hacked"}, withBearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/users/"+aliceID, map[string]string{"role": "admin"}, withBearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/users/"+aliceID, map[string]string{"first_name": "Alicia"}, withBearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alicia", decodeBody[payload.UserResponse](t, rec).FirstName)

	rec = s.do(t, http.MethodDelete, "/users/"+aliceID, nil, withBearer(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users/"+bobID, nil, withBearer(adminToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/"+bobID, nil, withBearer(aliceToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFriends(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	aliceID, aliceToken, _ := s.signUp(t, "alice@example.com")
	bobID, _, _ := s.signUp(t, "bob@example.com")

	rec := s.do(t, http.MethodPost, "/users/friends", payload.AddFriendRequest{FriendID: bobID}, withBearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{bobID}, decodeBody[payload.UserResponse](t, rec).Friends)

	rec = s.do(t, http.MethodPost, "/users/friends", payload.AddFriendRequest{FriendID: bobID}, withBearer(aliceToken))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/friends", payload.AddFriendRequest{FriendID: aliceID}, withBearer(aliceToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/friends", payload.AddFriendRequest{FriendID: "zzz"}, withBearer(aliceToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users/friends/"+bobID, nil, withBearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[payload.UserResponse](t, rec).Friends)
}

func TestPostsAndComments(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	aliceID, aliceToken, _ := s.signUp(t, "alice@example.com")
	_, bobToken, _ := s.signUp(t, "bob@example.com")

	rec := s.do(t, http.MethodPost, "/posts", payload.CreatePostRequest{Content: "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/posts", payload.CreatePostRequest{Content: "hello"}, withBearer(aliceToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decodeBody[payload.PostResponse](t, rec)
	assert.Equal(t, aliceID, post.UserID)

	rec = s.do(t, http.MethodPatch, "/posts/"+post.ID, map[string]string{"content": "mine"}, withBearer(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/posts/"+post.ID+"/like", nil, withBearer(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decodeBody[payload.PostResponse](t, rec).Likes)

	rec = s.do(t, http.MethodGet, "/posts/user/"+aliceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]payload.PostResponse](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/comments", payload.CreateCommentRequest{PostID: post.ID, Content: "nice"}, withBearer(bobToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decodeBody[payload.CommentResponse](t, rec)

	rec = s.do(t, http.MethodGet, "/comments/post/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]payload.CommentResponse](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/comments/"+comment.ID, nil, withBearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/comments/"+comment.ID, nil, withBearer(bobToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/posts/"+post.ID, nil, withBearer(aliceToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoogleFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/auth/google", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	stateCookie := findCookie(rec, oauthStateCookie)
	require.NotNil(t, stateCookie)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	assert.Equal(t, stateCookie.Value, state)

	t.Run("state mismatch", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/auth/google/callback?code=good-code&state=other", nil, withCookie(stateCookie))
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, testFrontendURL+"?error=invalid_state", rec.Header().Get("Location"))
	})

	t.Run("bad code", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/auth/google/callback?code=bad&state="+state, nil, withCookie(stateCookie))
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, testFrontendURL+"?error=access_denied", rec.Header().Get("Location"))
	})

	t.Run("success", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/auth/google/callback?code=good-code&state="+state, nil, withCookie(stateCookie))
		require.Equal(t, http.StatusFound, rec.Code)

		target := rec.Header().Get("Location")
		require.True(t, strings.HasPrefix(target, testFrontendURL+"#"), target)

		fragment, err := url.ParseQuery(strings.TrimPrefix(target, testFrontendURL+"#"))
		require.NoError(t, err)

		claims, err := s.issuer.Verify(fragment.Get("access_token"))
		require.NoError(t, err)
		assert.Equal(t, "gina@example.com", claims.Email)
		assert.NotNil(t, findCookie(rec, testCookieName))
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.healthy = errors.New("mongo down")
	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	const id = "5f0c3a4e-8a73-4a4b-9a43-3c1c2f0d9b11"
	rec = s.do(t, http.MethodGet, "/healthz", nil, func(r *http.Request) { r.Header.Set(requestIDHeader, id) })
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	withOrigin := func(origin string) requestOption {
		return func(r *http.Request) { r.Header.Set("Origin", origin) }
	}
	preflight := func(r *http.Request) {
		r.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		r.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	}

	rec := s.do(t, http.MethodOptions, "/users/profile", nil, withOrigin("http://frontend.test"), preflight)
	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, rec.Code)
	assert.Equal(t, "http://frontend.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	rec = s.do(t, http.MethodOptions, "/users/profile", nil, withOrigin("http://evil.test"), preflight)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(t, http.MethodGet, "/healthz", nil, withOrigin("http://frontend.test"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://frontend.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPaginationBounds(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	tests := []struct {
		query  string
		status int
	}{
		{"?limit=100&offset=0", http.StatusOK},
		{"?limit=101", http.StatusBadRequest},
		{"?offset=2147483647", http.StatusOK},
		{"?offset=2147483648", http.StatusBadRequest},
		{"?offset=18446744073709551615", http.StatusBadRequest},
		{"?offset=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/posts"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestOriginOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://frontend.test", originOf("http://frontend.test/app"))
	assert.Equal(t, "https://app.example.com:8443", originOf("https://app.example.com:8443/"))
	assert.Equal(t, "not a url", originOf("not a url"))
}
