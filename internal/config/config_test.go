package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 60*time.Minute, cfg.JWTAccessTokenExpiryMinutes)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTRefreshTokenExpiryDays)
	assert.Equal(t, time.Hour, cfg.LoginLockDuration)
	assert.Equal(t, 5*time.Minute, cfg.CommentCaptchaLock)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, "refresh_token", cfg.RefreshCookieName)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.RefreshCookieSecure, "debug mode keeps the cookie usable over plain http")
}

func TestLoad_ReleaseModeSecuresCookie(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("GIN_MODE", "release")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.RefreshCookieSecure)
}

func TestLoad_PostgresDSNBuiltFromParts(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "blog")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.DBSource, "host=db.internal")
	assert.Contains(t, cfg.DBSource, "dbname=blog")
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}
