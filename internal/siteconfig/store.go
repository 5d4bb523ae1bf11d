// Package siteconfig holds the runtime-editable site settings document. It is a
// JSON file merged over built-in defaults and edited from the admin API.
package siteconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/config"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CaptchaSettings controls captcha generation.
type CaptchaSettings struct {
	Length  int
	Timeout time.Duration
	Width   int
	Height  int
}

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	path   string
	v      *viper.Viper
	logger *zap.Logger
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network_disk.cleanup_days", 7)

	v.SetDefault("captcha.length", 4)
	v.SetDefault("captcha.timeout_minutes", 5)
	v.SetDefault("captcha.width", 120)
	v.SetDefault("captcha.height", 40)

	v.SetDefault("jwt.access_token_lifetime_minutes", 60)
	v.SetDefault("jwt.refresh_token_lifetime_days", 30)

	v.SetDefault("front.author_id", "")
	v.SetDefault("front.author", "")
	v.SetDefault("front.blog_name", "Blog")
	v.SetDefault("front.github", "")
	v.SetDefault("front.gitee", "")
	v.SetDefault("front.bilibili", "")
	v.SetDefault("front.theme.light", map[string]interface{}{"primary": "#409eff", "background": "#ffffff"})
	v.SetDefault("front.theme.dark", map[string]interface{}{"primary": "#79bbff", "background": "#141414"})
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)
	return v
}

// NewStore loads the document at cfg.SiteConfigPath, writing the defaults
// there when the file does not exist yet.
func NewStore(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	s := &Store{path: cfg.SiteConfigPath, logger: logger.Named("siteconfig")}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the file from disk.
func (s *Store) Reload() error {
	v := newViper(s.path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read site config %s: %w", s.path, err)
			}
		}
		if err := writeFile(v, s.path); err != nil {
			s.logger.Warn("Could not create default site config", zap.String("path", s.path), zap.Error(err))
		}
	}
	if err := validate(v); err != nil {
		return fmt.Errorf("site config %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.v = v
	s.mu.Unlock()
	return nil
}

// All returns the full merged document.
func (s *Store) All() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.AllSettings()
}

// Front returns the section exposed to anonymous visitors.
func (s *Store) Front() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetStringMap("front")
}

// Update deep-merges patch into the document, validates and persists it.
// On any error the previous document stays in effect.
func (s *Store) Update(patch map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := newViper(s.path)
	if err := next.MergeConfigMap(s.v.AllSettings()); err != nil {
		return nil, fmt.Errorf("copy site config: %w", err)
	}
	if err := next.MergeConfigMap(patch); err != nil {
		return nil, common.ErrBadRequest.WithDetails(err.Error())
	}
	if err := validate(next); err != nil {
		return nil, common.NewValidationAPIError(err.Error())
	}
	if err := writeFile(next, s.path); err != nil {
		s.logger.Error("Failed to persist site config", zap.Error(err))
		return nil, fmt.Errorf("write site config: %w", err)
	}
	s.v = next
	s.logger.Info("Site config updated", zap.String("path", s.path))
	return next.AllSettings(), nil
}

// CleanupDays is the age after which network-disk entries are removed.
func (s *Store) CleanupDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetInt("network_disk.cleanup_days")
}

func (s *Store) Captcha() CaptchaSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CaptchaSettings{
		Length:  s.v.GetInt("captcha.length"),
		Timeout: time.Duration(s.v.GetInt("captcha.timeout_minutes")) * time.Minute,
		Width:   s.v.GetInt("captcha.width"),
		Height:  s.v.GetInt("captcha.height"),
	}
}

func (s *Store) AccessTokenLifetime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.v.GetInt("jwt.access_token_lifetime_minutes")) * time.Minute
}

func (s *Store) RefreshTokenLifetime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.v.GetInt("jwt.refresh_token_lifetime_days")) * 24 * time.Hour
}

func validate(v *viper.Viper) error {
	checks := []struct {
		key      string
		min, max int
	}{
		{"network_disk.cleanup_days", 1, 3650},
		{"captcha.length", 3, 8},
		{"captcha.timeout_minutes", 1, 60},
		{"captcha.width", 60, 400},
		{"captcha.height", 20, 200},
		{"jwt.access_token_lifetime_minutes", 1, 24 * 60},
		{"jwt.refresh_token_lifetime_days", 1, 365},
	}
	for _, c := range checks {
		n := v.GetInt(c.key)
		if n < c.min || n > c.max {
			return fmt.Errorf("%s must be between %d and %d, got %d", c.key, c.min, c.max, n)
		}
	}
	return nil
}

func writeFile(v *viper.Viper, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return v.WriteConfigAs(path)
}
