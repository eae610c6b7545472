// Package memory implements the repository interfaces in process memory.
// It backs STORAGE_DRIVER=memory and the use-case tests, and keeps the same
// conditional-write semantics as the Mongo repositories.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
)

// UserRepository stores users in memory.
type UserRepository struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User
	now   func() time.Time
}

// NewUserRepository creates an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[bson.ObjectID]*model.User),
		now:   time.Now,
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findByEmail(user.Email) != nil {
		return nil, repository.ErrDuplicateKey
	}
	for _, link := range user.FederatedLinks {
		if r.findByLink(link.Provider, link.Subject) != nil {
			return nil, repository.ErrDuplicateKey
		}
	}

	now := r.now()
	stored := cloneUser(user)
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Friends == nil {
		stored.Friends = []bson.ObjectID{}
	}
	if stored.FederatedLinks == nil {
		stored.FederatedLinks = []model.FederatedLink{}
	}
	r.users[stored.ID] = stored

	user.ID = stored.ID
	user.CreatedAt = now
	user.UpdatedAt = now

	return cloneUser(stored), nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return nil, err
	}

	return cloneUser(user), nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByEmail(email)
	if user == nil {
		return nil, repository.ErrNotFound
	}

	return cloneUser(user), nil
}

func (r *UserRepository) UpdateUser(
	ctx context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return nil, err
	}

	if params.IsEmpty() {
		return nil, repository.ErrNoFieldsToUpdate
	}

	if params.Email != nil {
		if other := r.findByEmail(*params.Email); other != nil && other.ID != user.ID {
			return nil, repository.ErrDuplicateKey
		}
		user.Email = *params.Email
	}
	assignIfPresent(&user.FirstName, params.FirstName)
	assignIfPresent(&user.LastName, params.LastName)
	assignIfPresent(&user.PasswordHash, params.PasswordHash)
	assignIfPresent(&user.Address, params.Address)
	assignIfPresent(&user.Mobile, params.Mobile)
	if params.Role != nil {
		user.Role = *params.Role
	}
	user.UpdatedAt = r.now()

	return cloneUser(user), nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return nil, err
	}
	delete(r.users, user.ID)

	return user, nil
}

func (r *UserRepository) ListUsers(
	ctx context.Context,
	params repository.FilterUsersParams,
) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		if params.Role != nil && user.Role != *params.Role {
			continue
		}
		users = append(users, cloneUser(user))
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.Hex() < users[j].ID.Hex()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return paginate(users, params.Offset, params.Limit), nil
}

func (r *UserRepository) GetUserByFederatedLink(
	ctx context.Context,
	provider string,
	subject string,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByLink(provider, subject)
	if user == nil {
		return nil, repository.ErrNotFound
	}

	return cloneUser(user), nil
}

func (r *UserRepository) AddFederatedLink(
	ctx context.Context,
	id string,
	link model.FederatedLink,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return nil, err
	}

	if holder := r.findByLink(link.Provider, link.Subject); holder != nil {
		if holder.ID != user.ID {
			return nil, repository.ErrDuplicateKey
		}
		return cloneUser(user), nil
	}

	if link.LinkedAt.IsZero() {
		link.LinkedAt = r.now()
	}
	user.FederatedLinks = append(user.FederatedLinks, link)
	user.UpdatedAt = r.now()

	return cloneUser(user), nil
}

func (r *UserRepository) SetPasswordReset(ctx context.Context, id string, reset model.PasswordReset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return err
	}

	user.PasswordReset = &reset
	user.UpdatedAt = r.now()

	return nil
}

func (r *UserRepository) GetUserByPasswordReset(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByPendingReset(tokenHash, now)
	if user == nil {
		return nil, repository.ErrNotFound
	}

	return cloneUser(user), nil
}

func (r *UserRepository) ConsumePasswordReset(
	ctx context.Context,
	tokenHash string,
	now time.Time,
	passwordHash string,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByPendingReset(tokenHash, now)
	if user == nil {
		return nil, repository.ErrNotFound
	}

	user.PasswordHash = passwordHash
	user.PasswordReset = nil
	user.UpdatedAt = now

	return cloneUser(user), nil
}

func (r *UserRepository) AddFriend(ctx context.Context, id, friendID string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	friendObjectID, err := bson.ObjectIDFromHex(friendID)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return nil, err
	}

	if user.HasFriend(friendObjectID) {
		return nil, repository.ErrNotModified
	}
	user.Friends = append(user.Friends, friendObjectID)
	user.UpdatedAt = r.now()

	return cloneUser(user), nil
}

func (r *UserRepository) RemoveFriend(ctx context.Context, id, friendID string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	friendObjectID, err := bson.ObjectIDFromHex(friendID)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.get(id)
	if err != nil {
		return nil, err
	}

	user.Friends = slices.DeleteFunc(user.Friends, func(id bson.ObjectID) bool {
		return id == friendObjectID
	})
	user.UpdatedAt = r.now()

	return cloneUser(user), nil
}

func (r *UserRepository) get(id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	user, ok := r.users[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return user, nil
}

func (r *UserRepository) findByEmail(email string) *model.User {
	for _, user := range r.users {
		if user.Email == email {
			return user
		}
	}
	return nil
}

func (r *UserRepository) findByLink(provider, subject string) *model.User {
	for _, user := range r.users {
		if _, ok := user.FederatedLink(provider, subject); ok {
			return user
		}
	}
	return nil
}

func (r *UserRepository) findByPendingReset(tokenHash string, now time.Time) *model.User {
	for _, user := range r.users {
		reset := user.PasswordReset
		if reset != nil && reset.TokenHash == tokenHash && reset.ExpiresAt.After(now) {
			return user
		}
	}
	return nil
}

func cloneUser(user *model.User) *model.User {
	clone := *user
	clone.Friends = slices.Clone(user.Friends)
	clone.FederatedLinks = slices.Clone(user.FederatedLinks)
	if user.PasswordReset != nil {
		reset := *user.PasswordReset
		clone.PasswordReset = &reset
	}
	return &clone
}

func assignIfPresent(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func paginate[T any](items []T, offset, limit uint64) []T {
	if limit == 0 {
		limit = 50
	}
	if offset >= uint64(len(items)) {
		return []T{}
	}
	end := offset + limit
	if end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[offset:end]
}
