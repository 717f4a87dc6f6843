package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/petlife-licenser/internal/users"
	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/security"
)

const generatedPasswordLength = 20

type adminStore interface {
	Upsert(ctx context.Context, dto users.CreateUserDTO) (*models.AdminUser, error)
	CountByRole(ctx context.Context, role enums.AdminRole) (int64, error)
}

// AdminInput describes the account written by EnsureAdmin.
type AdminInput struct {
	Username string
	Password string
	FullName string
	Role     enums.AdminRole
}

// EnsureAdmin creates or overwrites an admin account. An empty password is replaced with a
// generated one, which is returned so the operator can see it once.
func EnsureAdmin(ctx context.Context, store adminStore, input AdminInput, pwCfg config.PasswordConfig) (*models.AdminUser, string, error) {
	username := users.NormalizeUsername(input.Username)
	if username == "" {
		return nil, "", fmt.Errorf("admin username is required")
	}
	role := input.Role
	if role == "" {
		role = enums.AdminRoleAdmin
	}
	if !role.IsValid() {
		return nil, "", fmt.Errorf("invalid admin role %q", role)
	}

	password := input.Password
	if strings.TrimSpace(password) == "" {
		generated, err := security.GenerateTempPassword(generatedPasswordLength)
		if err != nil {
			return nil, "", fmt.Errorf("generate password: %w", err)
		}
		password = generated
	}

	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := store.Upsert(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         role,
	})
	if err != nil {
		return nil, "", fmt.Errorf("upsert admin: %w", err)
	}
	return user, password, nil
}

// SeedAdmin writes the configured bootstrap admin when no active admin exists. It is a no-op
// without a configured password.
func SeedAdmin(ctx context.Context, store adminStore, cfg config.AdminConfig, pwCfg config.PasswordConfig, logg *logger.Logger) error {
	if cfg.Password == "" {
		return nil
	}
	count, err := store.CountByRole(ctx, enums.AdminRoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	user, _, err := EnsureAdmin(ctx, store, AdminInput{
		Username: cfg.Username,
		Password: cfg.Password,
		FullName: cfg.FullName,
	}, pwCfg)
	if err != nil {
		return err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "username", user.Username), "admin.seeded")
	}
	return nil
}
