package payload

import (
	"time"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/model"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
)

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	Address   string `json:"address"    validate:"omitempty,max=255"`
	Mobile    string `json:"mobile"     validate:"omitempty,e164"`
}

type UpdateUserRequest struct {
	FirstName *string    `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string    `json:"last_name"  validate:"omitempty,min=1,max=100"`
	Email     *string    `json:"email"      validate:"omitempty,email"`
	Password  *string    `json:"password"   validate:"omitempty,min=6,max=72"`
	Address   *string    `json:"address"    validate:"omitempty,max=255"`
	Mobile    *string    `json:"mobile"     validate:"omitempty,e164"`
	Role      *auth.Role `json:"role"       validate:"omitempty,oneof=user admin"`
}

type AddFriendRequest struct {
	FriendID string `json:"friend_id" validate:"required,objectid"`
}

type FederatedLinkResponse struct {
	Provider string    `json:"provider"`
	Email    string    `json:"email"`
	LinkedAt time.Time `json:"linked_at"`
}

// UserResponse is the only outbound representation of a user.
// Password and reset hashes never leave the service.
type UserResponse struct {
	ID             string                  `json:"id"`
	FirstName      string                  `json:"first_name"`
	LastName       string                  `json:"last_name"`
	Email          string                  `json:"email"`
	Address        string                  `json:"address,omitempty"`
	Mobile         string                  `json:"mobile,omitempty"`
	Role           auth.Role               `json:"role"`
	Friends        []string                `json:"friends"`
	FederatedLinks []FederatedLinkResponse `json:"federated_links"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func NewUserResponse(user *model.User) UserResponse {
	friends := make([]string, 0, len(user.Friends))
	for _, id := range user.Friends {
		friends = append(friends, id.Hex())
	}

	links := make([]FederatedLinkResponse, 0, len(user.FederatedLinks))
	for _, link := range user.FederatedLinks {
		links = append(links, FederatedLinkResponse{
			Provider: link.Provider,
			Email:    link.Email,
			LinkedAt: link.LinkedAt,
		})
	}

	return UserResponse{
		ID:             user.ID.Hex(),
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Address:        user.Address,
		Mobile:         user.Mobile,
		Role:           user.Role,
		Friends:        friends,
		FederatedLinks: links,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func NewUserResponses(users []*model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
