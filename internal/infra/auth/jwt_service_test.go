package auth

import (
	"testing"
	"time"

	"bizdir/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T, secret string) *jwtService {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = secret

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService(t, "test_access_secret_key_very_long_for_testing")
	identityID := uuid.New()

	token, err := svc.GenerateAccessToken(identityID, []string{"admin"}, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, identityID, claims.IdentityID)
	assert.Equal(t, []string{"admin"}, claims.Roles)
	assert.Equal(t, identityID.String(), claims.Subject)
}

func TestJWTService_MissingSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})
	assert.Error(t, err)
}

func TestJWTService_RejectsNilIdentity(t *testing.T) {
	svc := newTestJWTService(t, "secret")

	_, err := svc.GenerateAccessToken(uuid.Nil, nil, time.Hour)
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_Failures(t *testing.T) {
	svc := newTestJWTService(t, "test_access_secret_key_very_long_for_testing")
	other := newTestJWTService(t, "a_completely_different_secret_value")
	identityID := uuid.New()

	expired, err := svc.GenerateAccessToken(identityID, nil, -time.Minute)
	require.NoError(t, err)

	foreign, err := other.GenerateAccessToken(identityID, nil, time.Hour)
	require.NoError(t, err)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	refreshToken, err := refresh.SignedString(svc.accessSecret)
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badSubjectToken, err := badSubject.SignedString(svc.accessSecret)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Type:             tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: identityID.String()},
	})
	noExpiryToken, err := noExpiry.SignedString(svc.accessSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "clearly-not-a-jwt-token-format"},
		{name: "empty", token: ""},
		{name: "expired", token: expired},
		{name: "signed with another secret", token: foreign},
		{name: "wrong token type", token: refreshToken},
		{name: "subject is not a uuid", token: badSubjectToken},
		{name: "missing expiry", token: noExpiryToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
