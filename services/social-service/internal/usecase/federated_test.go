package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
)

func googleProfile(subject, email string) provider.Profile {
	return provider.Profile{
		Provider:   provider.ProviderGoogle,
		Subject:    subject,
		Email:      email,
		GivenName:  "Alice",
		FamilyName: "Liddell",
	}
}

func TestFederated_ResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.federated.Resolve(ctx, googleProfile("P1", "e@example.com"))
	require.NoError(t, err)
	second, err := env.federated.Resolve(ctx, googleProfile("P1", "e@example.com"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.FederatedLinks, 1)
	assert.Equal(t, "Alice", first.FirstName)
	assert.Equal(t, auth.RoleUser, first.Role)
}

func TestFederated_SameEmailLinksInsteadOfDuplicating(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.federated.Resolve(ctx, googleProfile("P1", "e@example.com"))
	require.NoError(t, err)
	second, err := env.federated.Resolve(ctx, googleProfile("P2", "e@example.com"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	for _, subject := range []string{"P1", "P2"} {
		user, err := env.users.GetUserByFederatedLink(ctx, provider.ProviderGoogle, subject)
		require.NoError(t, err)
		assert.Equal(t, first.ID, user.ID)
	}

	users, err := env.users.ListUsers(ctx, repository.FilterUsersParams{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestFederated_LinksRegisteredAccount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "alice@example.com", "pw123456")

	user, err := env.federated.Resolve(ctx, googleProfile("G-1", "Alice@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, ok := user.FederatedLink(provider.ProviderGoogle, "G-1")
	assert.True(t, ok)

	// The local password keeps working after linking.
	_, err = env.auth.Login(ctx, LoginParams{Email: "alice@example.com", Password: "pw123456"})
	assert.NoError(t, err)
}

func TestFederated_SubjectWinsOverEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	original, err := env.federated.Resolve(ctx, googleProfile("P1", "old@example.com"))
	require.NoError(t, err)
	other := env.register(t, "new@example.com", "pw123456")

	// The provider account changed its email to one owned by another local user.
	user, err := env.federated.Resolve(ctx, googleProfile("P1", "new@example.com"))
	require.NoError(t, err)
	assert.Equal(t, original.ID, user.ID)
	assert.NotEqual(t, other.ID, user.ID)
}

func TestFederated_CreatedAccountCannotUseCredentialLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.federated.Resolve(ctx, googleProfile("P1", "fed@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)

	for _, password := range []string{"", "password", user.PasswordHash} {
		_, err := env.auth.Login(ctx, LoginParams{Email: "fed@example.com", Password: password})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestFederated_RejectsMalformedProfile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	profile := googleProfile("P1", "e@example.com")
	profile.FamilyName = ""

	_, err := env.federated.Resolve(context.Background(), profile)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestFederated_ConcurrentFirstLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := env.federated.Resolve(ctx, googleProfile("P1", "race@example.com"))
			if assert.NoError(t, err) {
				ids[i] = user.ID.Hex()
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestFederated_Login(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	profile := googleProfile("P1", "e@example.com")
	env.provider.profiles["good-code"] = &profile

	result, err := env.federated.Login(ctx, "good-code", SessionMetadata{})
	require.NoError(t, err)

	claims, err := env.auth.VerifyToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.Hex(), claims.UserID())

	_, err = env.federated.Login(ctx, "bad-code", SessionMetadata{})
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	assert.ErrorIs(t, err, provider.ErrInvalidCode)

	authURL, err := env.federated.AuthCodeURL("state-1")
	require.NoError(t, err)
	assert.Contains(t, authURL, "state=state-1")
}

func TestFederated_NotConfigured(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	federated := NewFederatedUsecase(env.users, env.sessions, env.hasher, env.issuer, nil)

	_, err := federated.AuthCodeURL("state")
	assert.ErrorIs(t, err, provider.ErrNotConfigured)

	_, err = federated.Login(context.Background(), "code", SessionMetadata{})
	assert.ErrorIs(t, err, provider.ErrNotConfigured)

	user, err := federated.Resolve(context.Background(), googleProfile("P1", "e@example.com"))
	require.NoError(t, err)
	assert.IsType(t, &model.User{}, user)
}
