// File: internal/auth/blocklist.go
package auth

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenBlocklistService keeps revoked access-token IDs until the tokens expire.
type TokenBlocklistService interface {
	AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlocklisted(ctx context.Context, jti string) (bool, error)
}

// InMemoryBlocklistService is a process-local blocklist. A restart forgets
// revocations, which only matters for the remaining access-token lifetime.
type InMemoryBlocklistService struct {
	cache *cache.Cache
	now   func() time.Time
}

// InMemoryBlocklistConfig holds the configuration for the InMemoryBlocklistService.
type InMemoryBlocklistConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

// DefaultBlocklistConfig sizes the cache for hour-long access tokens.
func DefaultBlocklistConfig() InMemoryBlocklistConfig {
	return InMemoryBlocklistConfig{DefaultExpiration: time.Hour, CleanupInterval: 10 * time.Minute}
}

// NewInMemoryBlocklistService creates a new in-memory blocklist service.
func NewInMemoryBlocklistService(cfg InMemoryBlocklistConfig) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{
		cache: cache.New(cfg.DefaultExpiration, cfg.CleanupInterval),
		now:   time.Now,
	}
}

// AddToBlocklist stores jti until expiresAt. Expired tokens are ignored.
func (s *InMemoryBlocklistService) AddToBlocklist(_ context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(jti, struct{}{}, ttl)
	return nil
}

func (s *InMemoryBlocklistService) IsBlocklisted(_ context.Context, jti string) (bool, error) {
	_, found := s.cache.Get(jti)
	return found, nil
}

// Len reports the number of revoked tokens still tracked.
func (s *InMemoryBlocklistService) Len() int {
	return s.cache.ItemCount()
}
