package auth

import (
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting an admin JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     enums.AdminRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to admin operators.
type AccessTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Role     enums.AdminRole `json:"role"`
	jwt.RegisteredClaims
}
