// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"bizdir/config"
	"bizdir/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const tokenTypeAccess = "access"

// accessClaims is the wire form of service.Claims: the identity travels in "sub".
type accessClaims struct {
	Type  string   `json:"type"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	accessSecret []byte
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	return &jwtService{
		accessSecret: []byte(cfg.SecretKey.Access),
		now:          time.Now,
	}, nil
}

// GenerateAccessToken signs an access token for the identity, valid for ttl.
func (s *jwtService) GenerateAccessToken(identityID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	if identityID == uuid.Nil {
		return "", errors.New("identity id is required")
	}

	now := s.now()
	claims := accessClaims{
		Type:  tokenTypeAccess,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// ValidateToken checks signature, expiry and token type, and resolves the subject to an identity id.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	var claims accessClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}

	if claims.Type != tokenTypeAccess {
		return nil, errors.Errorf("unexpected token type %q", claims.Type)
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "token subject is not an identity id")
	}

	return &service.Claims{
		IdentityID:       identityID,
		Roles:            claims.Roles,
		RegisteredClaims: claims.RegisteredClaims,
	}, nil
}
