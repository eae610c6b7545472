package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository/memory"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

const testResetURL = "http://localhost:3000/reset-password"

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendHTML(to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

type fakeProvider struct {
	profiles map[string]*provider.Profile
}

func (p *fakeProvider) Name() string { return provider.ProviderGoogle }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*provider.Profile, error) {
	profile, ok := p.profiles[code]
	if !ok {
		return nil, provider.ErrInvalidCode
	}
	return profile, nil
}

type testEnv struct {
	users    *memory.UserRepository
	sessions *memory.SessionRepository
	posts    *memory.PostRepository
	comments *memory.CommentRepository
	hasher   *security.PasswordHasher
	issuer   *auth.TokenIssuer
	mailer   *fakeMailer
	provider *fakeProvider

	auth      AuthUsecase
	reset     PasswordResetUsecase
	federated FederatedUsecase
	user      UserUsecase
	post      PostUsecase
	comment   CommentUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := argon2.DefaultConfig()
	config.MemoryCost = 8 * 1024
	config.TimeCost = 1
	config.Parallelism = 1

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:    "usecase-test-secret-at-least-32-bytes",
		ExpiresIn: time.Hour,
		Issuer:    "social-service",
	})
	require.NoError(t, err)

	env := &testEnv{
		users:    memory.NewUserRepository(),
		sessions: memory.NewSessionRepository(),
		posts:    memory.NewPostRepository(),
		comments: memory.NewCommentRepository(),
		hasher:   security.NewPasswordHasher(config),
		issuer:   issuer,
		mailer:   &fakeMailer{},
		provider: &fakeProvider{profiles: map[string]*provider.Profile{}},
	}

	env.auth = NewAuthUsecase(env.users, env.sessions, env.hasher, env.issuer)
	env.reset = NewPasswordResetUsecase(env.users, env.hasher, env.mailer, PasswordResetConfig{
		ResetURL:  testResetURL,
		ExpiresIn: time.Hour,
	})
	env.federated = NewFederatedUsecase(env.users, env.sessions, env.hasher, env.issuer, env.provider)
	env.user = NewUserUsecase(env.users, env.sessions, env.hasher)
	env.post = NewPostUsecase(env.posts)
	env.comment = NewCommentUsecase(env.comments, env.posts)

	return env
}

func (e *testEnv) register(t *testing.T, email, password string) *model.User {
	t.Helper()

	user, err := e.auth.Register(context.Background(), RegisterParams{
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)

	return user
}

func (e *testEnv) promote(t *testing.T, user *model.User) authz.Actor {
	t.Helper()

	role := auth.RoleAdmin
	_, err := e.users.UpdateUser(context.Background(), user.ID.Hex(), repository.UpdateUserParams{Role: &role})
	require.NoError(t, err)

	return authz.Actor{ID: user.ID.Hex(), Role: auth.RoleAdmin}
}

func actorOf(user *model.User) authz.Actor {
	return authz.Actor{ID: user.ID.Hex(), Role: user.Role}
}

// tokenFromMail extracts the raw reset token from the link in a reset email.
func tokenFromMail(t *testing.T, mail sentMail) string {
	t.Helper()

	start := strings.Index(mail.Body, testResetURL)
	require.GreaterOrEqual(t, start, 0, "reset link missing from body")

	rest := mail.Body[start:]
	end := strings.IndexAny(rest, `"<`)
	require.Greater(t, end, 0)

	link, err := url.Parse(rest[:end])
	require.NoError(t, err)

	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	return token
}

var errMailDown = errors.New("smtp unavailable")
