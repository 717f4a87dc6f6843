package auth

import (
	"github.com/angelmondragon/petlife-licenser/internal/users"
)

// LoginRequest captures the admin credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token and the authenticated admin.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt int64          `json:"expires_at"`
	User      *users.UserDTO `json:"user"`
}
