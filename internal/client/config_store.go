package client

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SiteConfig is the public site configuration.
type SiteConfig map[string]interface{}

// String returns a top-level string setting, or "" when absent.
func (s SiteConfig) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// ConfigStore loads the public site config once per process. Failed loads
// are not cached, so the next call tries again.
type ConfigStore struct {
	client *Client

	mu     sync.RWMutex
	config SiteConfig
	group  singleflight.Group
}

func NewConfigStore(c *Client) *ConfigStore {
	return &ConfigStore{client: c}
}

// Loaded reports whether a config is cached.
func (s *ConfigStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config != nil
}

func (s *ConfigStore) Load(ctx context.Context) (SiteConfig, error) {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()
	if cfg != nil {
		return cfg, nil
	}

	v, err, _ := s.group.Do("config", func() (interface{}, error) {
		resp, err := s.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/config"})
		if err != nil {
			return nil, err
		}
		loaded := SiteConfig{}
		if err := resp.Decode(&loaded); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.config = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(SiteConfig), nil
}
