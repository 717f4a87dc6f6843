package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID       uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	FullName string          `json:"full_name"`
	Role     enums.AdminRole `json:"role"`
}

// CreateUserDTO holds the data required by the repo to persist an admin.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         enums.AdminRole
	IsActive     *bool
}

func FromModel(u *models.AdminUser) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// NormalizeUsername trims and lowercases a login name.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (c CreateUserDTO) ToModel() *models.AdminUser {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	role := c.Role
	if role == "" {
		role = enums.AdminRoleAdmin
	}
	return &models.AdminUser{
		Username:     NormalizeUsername(c.Username),
		PasswordHash: c.PasswordHash,
		FullName:     strings.TrimSpace(c.FullName),
		Role:         role,
		IsActive:     isActive,
		UpdatedAt:    time.Now().UTC(),
	}
}
