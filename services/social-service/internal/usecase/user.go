package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/authz"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

// UserUsecase defines user management and friend operations.
type UserUsecase interface {
	ListUsers(ctx context.Context, actor authz.Actor, params ListUsersParams) ([]*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, actor authz.Actor, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, actor authz.Actor, id string) error
	AddFriend(ctx context.Context, actor authz.Actor, friendID string) (*model.User, error)
	RemoveFriend(ctx context.Context, actor authz.Actor, friendID string) (*model.User, error)
}

// ListUsersParams defines the pagination of ListUsers.
type ListUsersParams struct {
	Role   *auth.Role
	Limit  uint64
	Offset uint64
}

// UpdateUserParams defines the optional fields of a profile update.
// Password is plaintext and is hashed before storage.
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Address   *string
	Mobile    *string
	Role      *auth.Role
}

func (p UpdateUserParams) isEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Password == nil &&
		p.Address == nil && p.Mobile == nil && p.Role == nil
}

type userUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      *security.PasswordHasher
}

// NewUserUsecase creates a new instance of UserUsecase.
func NewUserUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher *security.PasswordHasher,
) UserUsecase {
	return &userUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
	}
}

func (u *userUsecase) ListUsers(
	ctx context.Context,
	actor authz.Actor,
	params ListUsersParams,
) ([]*model.User, error) {
	if err := authz.RequireRole(actor, authz.ActionList, auth.RoleAdmin); err != nil {
		return nil, err
	}

	return u.userRepo.ListUsers(ctx, repository.FilterUsersParams{
		Role:   params.Role,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (u *userUsecase) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	return user, nil
}

func (u *userUsecase) UpdateUser(
	ctx context.Context,
	actor authz.Actor,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	if err := authz.Authorize(actor, authz.ActionUpdate, id); err != nil {
		return nil, err
	}

	if params.isEmpty() {
		return nil, ErrNothingToUpdate
	}

	if params.Role != nil {
		if err := authz.RequireRole(actor, authz.ActionChangeRole, auth.RoleAdmin); err != nil {
			return nil, err
		}
		if !params.Role.Valid() {
			return nil, ErrInvalidRole
		}
	}

	update := repository.UpdateUserParams{
		FirstName: trimmed(params.FirstName),
		LastName:  trimmed(params.LastName),
		Address:   params.Address,
		Mobile:    params.Mobile,
		Role:      params.Role,
	}

	if params.Email != nil {
		email := NormalizeEmail(*params.Email)
		update.Email = &email
	}

	if params.Password != nil {
		passwordHash, err := u.hasher.Hash(*params.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &passwordHash
	}

	user, err := u.userRepo.UpdateUser(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrEmailTaken
		default:
			return nil, err
		}
	}

	return user, nil
}

func (u *userUsecase) DeleteUser(ctx context.Context, actor authz.Actor, id string) error {
	if err := authz.Authorize(actor, authz.ActionDelete, id); err != nil {
		return err
	}

	if _, err := u.userRepo.DeleteUser(ctx, id); err != nil {
		return notFound(err, ErrUserNotFound)
	}

	if _, err := u.sessionRepo.DeleteUserSessions(ctx, id); err != nil {
		return err
	}

	return nil
}

func (u *userUsecase) AddFriend(ctx context.Context, actor authz.Actor, friendID string) (*model.User, error) {
	if actor.ID == friendID {
		return nil, ErrSelfFriend
	}

	if _, err := u.userRepo.GetUser(ctx, friendID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	user, err := u.userRepo.AddFriend(ctx, actor.ID, friendID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotModified):
			return nil, ErrAlreadyFriends
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, err
		}
	}

	return user, nil
}

func (u *userUsecase) RemoveFriend(ctx context.Context, actor authz.Actor, friendID string) (*model.User, error) {
	user, err := u.userRepo.RemoveFriend(ctx, actor.ID, friendID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	return user, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	return &s
}
