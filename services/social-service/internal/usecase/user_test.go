package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
)

func ptr[T any](v T) *T {
	return &v
}

func TestUserUsecase_ListRequiresAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	admin := env.promote(t, env.register(t, "admin@example.com", "pw123456"))

	_, err := env.user.ListUsers(ctx, actorOf(alice), ListUsersParams{})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	users, err := env.user.ListUsers(ctx, admin, ListUsersParams{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserUsecase_UpdateOwnership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	bob := env.register(t, "bob@example.com", "pw123456")
	admin := env.promote(t, env.register(t, "admin@example.com", "pw123456"))

	updated, err := env.user.UpdateUser(ctx, actorOf(alice), alice.ID.Hex(), UpdateUserParams{FirstName: ptr(" Alicia ")})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)

	_, err = env.user.UpdateUser(ctx, actorOf(alice), bob.ID.Hex(), UpdateUserParams{FirstName: ptr("Hacked")})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	updated, err = env.user.UpdateUser(ctx, admin, bob.ID.Hex(), UpdateUserParams{LastName: ptr("Marley")})
	require.NoError(t, err)
	assert.Equal(t, "Marley", updated.LastName)

	_, err = env.user.UpdateUser(ctx, actorOf(alice), alice.ID.Hex(), UpdateUserParams{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = env.user.UpdateUser(ctx, admin, bson.NewObjectID().Hex(), UpdateUserParams{FirstName: ptr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUsecase_RoleChangeIsAdminOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	admin := env.promote(t, env.register(t, "admin@example.com", "pw123456"))

	_, err := env.user.UpdateUser(ctx, actorOf(alice), alice.ID.Hex(), UpdateUserParams{Role: ptr(auth.RoleAdmin)})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = env.user.UpdateUser(ctx, admin, alice.ID.Hex(), UpdateUserParams{Role: ptr(auth.Role("root"))})
	assert.ErrorIs(t, err, ErrInvalidRole)

	updated, err := env.user.UpdateUser(ctx, admin, alice.ID.Hex(), UpdateUserParams{Role: ptr(auth.RoleAdmin)})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, updated.Role)
}

func TestUserUsecase_UpdateEmailAndPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	env.register(t, "bob@example.com", "pw123456")

	_, err := env.user.UpdateUser(ctx, actorOf(alice), alice.ID.Hex(), UpdateUserParams{Email: ptr("BOB@example.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.user.UpdateUser(ctx, actorOf(alice), alice.ID.Hex(), UpdateUserParams{
		Email:    ptr("Alice2@Example.com"),
		Password: ptr("changed-pw"),
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginParams{Email: "alice2@example.com", Password: "changed-pw"})
	assert.NoError(t, err)
}

func TestUserUsecase_Delete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	bob := env.register(t, "bob@example.com", "pw123456")

	result, err := env.auth.Login(ctx, LoginParams{Email: "alice@example.com", Password: "pw123456"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.user.DeleteUser(ctx, actorOf(bob), alice.ID.Hex()), authz.ErrForbidden)
	require.NoError(t, env.user.DeleteUser(ctx, actorOf(alice), alice.ID.Hex()))

	_, err = env.user.GetUser(ctx, alice.ID.Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.auth.ResolveSession(ctx, result.SessionToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestUserUsecase_Friends(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	bob := env.register(t, "bob@example.com", "pw123456")

	updated, err := env.user.AddFriend(ctx, actorOf(alice), bob.ID.Hex())
	require.NoError(t, err)
	assert.True(t, updated.HasFriend(bob.ID))

	// Friendship is one-directional.
	reloaded, err := env.user.GetUser(ctx, bob.ID.Hex())
	require.NoError(t, err)
	assert.False(t, reloaded.HasFriend(alice.ID))

	_, err = env.user.AddFriend(ctx, actorOf(alice), bob.ID.Hex())
	assert.ErrorIs(t, err, ErrAlreadyFriends)

	_, err = env.user.AddFriend(ctx, actorOf(alice), alice.ID.Hex())
	assert.ErrorIs(t, err, ErrSelfFriend)

	_, err = env.user.AddFriend(ctx, actorOf(alice), bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	updated, err = env.user.RemoveFriend(ctx, actorOf(alice), bob.ID.Hex())
	require.NoError(t, err)
	assert.False(t, updated.HasFriend(bob.ID))
}

func TestUserUsecase_ConcurrentAddFriendHasNoDuplicates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "pw123456")
	bob := env.register(t, "bob@example.com", "pw123456")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.user.AddFriend(ctx, actorOf(alice), bob.ID.Hex())
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyFriends)
	}
	assert.Equal(t, 1, succeeded)

	reloaded, err := env.user.GetUser(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, reloaded.Friends, 1)
}
