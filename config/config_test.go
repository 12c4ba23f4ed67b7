package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresServiceRoleKey(t *testing.T) {
	t.Setenv("AUTH_SERVICE_ROLE_KEY", "")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrMissingServiceRoleKey)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("AUTH_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("APP_BASE_URL", "https://careguide.example")
	t.Setenv("FUNCTIONS_URL", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("JWT_REFRESH_EXPIRY", "not-a-duration")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "service-key", cfg.Auth.ServiceRoleKey)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	// Routines are served by the app itself unless configured otherwise.
	assert.Equal(t, "https://careguide.example", cfg.Functions.URL)
}
