// Package attempts tracks failed attempts per key and locks a key out once a
// threshold is reached. It backs the login, password recovery and comment
// captcha limits.
package attempts

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Limiter counts failures per key in a TTL cache.
type Limiter struct {
	mu          sync.Mutex
	cache       *cache.Cache
	maxAttempts int
	lockFor     time.Duration
	window      time.Duration
	now         func() time.Time
}

// Status describes the state of one key.
type Status struct {
	Locked     bool
	RetryAfter time.Duration
	Remaining  int
}

// New creates a limiter that locks a key for lockFor after maxAttempts failures
// recorded within window.
func New(maxAttempts int, lockFor, window time.Duration) *Limiter {
	cleanup := window
	if lockFor > cleanup {
		cleanup = lockFor
	}
	return &Limiter{
		cache:       cache.New(window, cleanup),
		maxAttempts: maxAttempts,
		lockFor:     lockFor,
		window:      window,
		now:         time.Now,
	}
}

func failKey(key string) string { return "fail:" + key }
func lockKey(key string) string { return "lock:" + key }

// Check reports whether key may attempt again. A key whose failure count reached
// the threshold is converted into a lock here, so the lock starts at the first
// rejected attempt.
func (l *Limiter) Check(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exp, found := l.cache.GetWithExpiration(lockKey(key)); found {
		return Status{Locked: true, RetryAfter: l.remaining(exp)}
	}
	count := l.failures(key)
	if count >= l.maxAttempts {
		l.lock(key)
		return Status{Locked: true, RetryAfter: l.lockFor}
	}
	return Status{Remaining: l.maxAttempts - count}
}

// Fail records a failure and returns the resulting status.
func (l *Limiter) Fail(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.failures(key) + 1
	if count >= l.maxAttempts {
		l.lock(key)
		return Status{Locked: true, RetryAfter: l.lockFor}
	}
	l.cache.Set(failKey(key), count, l.window)
	return Status{Remaining: l.maxAttempts - count}
}

// Reset clears the failure count (not an active lock).
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Delete(failKey(key))
}

// Unlock removes both the lock and the failure count for key.
func (l *Limiter) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Delete(failKey(key))
	l.cache.Delete(lockKey(key))
}

func (l *Limiter) failures(key string) int {
	if v, found := l.cache.Get(failKey(key)); found {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

func (l *Limiter) lock(key string) {
	l.cache.Set(lockKey(key), true, l.lockFor)
	l.cache.Delete(failKey(key))
}

func (l *Limiter) remaining(exp time.Time) time.Duration {
	if exp.IsZero() {
		return l.lockFor
	}
	if d := exp.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// FormatWait renders a lock duration for user-facing messages.
func FormatWait(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Round(time.Minute).Minutes()))
	}
	if d >= time.Minute {
		mins := int(d / time.Minute)
		secs := int((d % time.Minute) / time.Second)
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	return fmt.Sprintf("%d seconds", int(d.Round(time.Second).Seconds()))
}
