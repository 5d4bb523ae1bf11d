package client

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserInfo is the cached identity of the logged-in user.
type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
	IsAdmin  bool      `json:"is_admin"`
}

// SessionState classifies the local session.
type SessionState int

const (
	StateGuest SessionState = iota
	StateAuthenticated
	StateExpired
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "guest"
	}
}

// Snapshot is a copy of the AuthStore flags at one point in time.
type Snapshot struct {
	User            *UserInfo
	IsAuthenticated bool
	WasLoggedIn     bool
	TokenExpired    bool
}

// State derives the session classification. Authentication wins over the
// expired flag.
func (s Snapshot) State() SessionState {
	switch {
	case s.IsAuthenticated:
		return StateAuthenticated
	case s.TokenExpired:
		return StateExpired
	default:
		return StateGuest
	}
}

// AuthStore holds the in-memory session flags and mirrors the expired flag
// into Storage. Listeners registered with Subscribe see every mutation.
type AuthStore struct {
	mu        sync.RWMutex
	storage   Storage
	logger    *zap.Logger
	snap      Snapshot
	nextID    int
	listeners map[int]func(Snapshot)
}

func NewAuthStore(storage Storage, logger *zap.Logger) *AuthStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthStore{storage: storage, logger: logger, listeners: make(map[int]func(Snapshot))}
}

// Snapshot returns a copy of the current flags.
func (a *AuthStore) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.copyLocked()
}

func (a *AuthStore) State() SessionState {
	return a.Snapshot().State()
}

func (a *AuthStore) User() *UserInfo {
	return a.Snapshot().User
}

// Subscribe registers fn and returns a function that removes it.
func (a *AuthStore) Subscribe(fn func(Snapshot)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// SetUser marks the session authenticated as u, or unauthenticated when u
// is nil. The expired flag is cleared either way.
func (a *AuthStore) SetUser(u *UserInfo) {
	a.mutate(func(s *Snapshot) {
		s.User = cloneUser(u)
		s.IsAuthenticated = u != nil
		s.TokenExpired = false
		if u != nil {
			s.WasLoggedIn = true
		}
	})
	a.deleteKey(KeyTokenExpired)
}

// Clear drops the user. wasLoggedIn and the expired flag survive so an
// expired session is still recognised afterwards.
func (a *AuthStore) Clear() {
	a.mutate(func(s *Snapshot) {
		s.User = nil
		s.IsAuthenticated = false
	})
}

// SetTokenExpired marks the session expired while keeping the displayed user.
func (a *AuthStore) SetTokenExpired() {
	a.mutate(func(s *Snapshot) {
		s.TokenExpired = true
		s.IsAuthenticated = false
	})
	if err := a.storage.Set(KeyTokenExpired, "true"); err != nil {
		a.logger.Warn("Failed to persist expired flag", zap.Error(err))
	}
}

// ResetLoginState returns to a pristine guest session.
func (a *AuthStore) ResetLoginState() {
	a.mutate(func(s *Snapshot) {
		*s = Snapshot{}
	})
	a.deleteKey(KeyTokenExpired)
}

// SyncFromStorage rebuilds the flags from Storage. Unreadable user data is
// ignored and leaves the current state untouched.
func (a *AuthStore) SyncFromStorage() {
	raw, ok := a.storage.Get(KeyUserInfo)
	if !ok || raw == "" {
		return
	}
	var u UserInfo
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		a.logger.Debug("Ignoring unreadable cached user", zap.Error(err))
		return
	}
	if flag, _ := a.storage.Get(KeyTokenExpired); flag == "true" {
		a.mutate(func(s *Snapshot) {
			s.User = &u
			s.IsAuthenticated = false
			s.WasLoggedIn = true
			s.TokenExpired = true
		})
		return
	}
	a.SetUser(&u)
}

func (a *AuthStore) mutate(fn func(*Snapshot)) {
	a.mu.Lock()
	fn(&a.snap)
	snap := a.copyLocked()
	listeners := make([]func(Snapshot), 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (a *AuthStore) copyLocked() Snapshot {
	s := a.snap
	s.User = cloneUser(a.snap.User)
	return s
}

func (a *AuthStore) deleteKey(key string) {
	if err := a.storage.Delete(key); err != nil {
		a.logger.Warn("Failed to delete session key", zap.String("key", key), zap.Error(err))
	}
}

func cloneUser(u *UserInfo) *UserInfo {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
