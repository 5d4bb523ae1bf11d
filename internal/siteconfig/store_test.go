package siteconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config", "site.json")
	s, err := NewStore(&config.Config{SiteConfigPath: path}, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestNewStore_WritesDefaults(t *testing.T) {
	s, path := newStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, 7, s.CleanupDays())
	assert.Equal(t, CaptchaSettings{Length: 4, Timeout: 5 * time.Minute, Width: 120, Height: 40}, s.Captcha())
	assert.Equal(t, time.Hour, s.AccessTokenLifetime())
	assert.Equal(t, 30*24*time.Hour, s.RefreshTokenLifetime())
	assert.Equal(t, "Blog", s.Front()["blog_name"])
}

func TestUpdate_MergesAndPersists(t *testing.T) {
	s, path := newStore(t)

	_, err := s.Update(map[string]interface{}{
		"network_disk": map[string]interface{}{"cleanup_days": 3},
		"front":        map[string]interface{}{"blog_name": "Notes"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.CleanupDays())
	assert.Equal(t, 4, s.Captcha().Length, "untouched sections keep their values")

	reloaded, err := NewStore(&config.Config{SiteConfigPath: path}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.CleanupDays())
	assert.Equal(t, "Notes", reloaded.Front()["blog_name"])
}

func TestUpdate_RejectsInvalidValues(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Update(map[string]interface{}{"captcha": map[string]interface{}{"length": 50}})
	assert.ErrorIs(t, err, common.NewValidationAPIError(nil))
	assert.Equal(t, 4, s.Captcha().Length)
}

func TestNewStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(&config.Config{SiteConfigPath: path}, zap.NewNop())
	assert.Error(t, err)
}
