package jwt

import (
	"testing"
	"time"

	"careguide/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	s := newTestService()
	userID := uuid.New()

	token, err := s.GenerateAccessToken(userID, "jane@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)

	claims, err := s.ValidateToken(token.Value, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, token.ID, claims.TokenID)
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	s := newTestService()

	token, err := s.GenerateRefreshToken(uuid.New(), "jane@example.com")
	require.NoError(t, err)

	_, err = s.ValidateToken(token.Value, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := newTestService().GenerateAccessToken(uuid.New(), "jane@example.com")
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "other", AccessExpiry: time.Minute})
	_, err = other.ValidateToken(token.Value, AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	s := newTestService()
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.GenerateAccessToken(uuid.New(), "jane@example.com")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token.Value, AccessToken)
	require.Error(t, err)
	assert.True(t, IsExpired(err))
}

func TestInspectAcceptsExpiredToken(t *testing.T) {
	s := newTestService()
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := s.GenerateAccessToken(uuid.New(), "jane@example.com")
	require.NoError(t, err)

	s.now = time.Now
	claims, err := s.Inspect(token.Value)
	require.NoError(t, err)
	assert.Equal(t, token.ID, claims.TokenID)
}
