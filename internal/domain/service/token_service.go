package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims for the JWT access tokens.
type Claims struct {
	IdentityID uuid.UUID `json:"-"`
	Roles      []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for issuing and validating bearer tokens.
type TokenService interface {
	// GenerateAccessToken signs an access token for the identity.
	GenerateAccessToken(identityID uuid.UUID, roles []string, ttl time.Duration) (string, error)

	// ValidateToken checks the signature and expiry of a token string.
	ValidateToken(tokenString string) (*Claims, error)
}
