package dto

import (
	"time"

	"github.com/obratech/pedidos/internal/entity"
)

// UserResponse represents an account profile over transport layers. The
// password hash never leaves the persistence boundary.
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      *string    `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// NewUserResponse maps a user entity onto its transport representation.
func NewUserResponse(user *entity.User) UserResponse {
	var role *string
	if user.Role != nil {
		r := string(*user.Role)
		role = &r
	}
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      role,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

// NewUserResponses maps a slice of users preserving input order.
func NewUserResponses(users []entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// LoginResponse is returned on successful authentication. PendingApproval
// signals the waiting-approval screen for accounts without a role.
type LoginResponse struct {
	Token           string       `json:"token"`
	User            UserResponse `json:"user"`
	PendingApproval bool         `json:"pending_approval"`
}
