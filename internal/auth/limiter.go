package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// Login throttling: 5 attempts, then one more every 12 seconds.
const (
	attemptBurst = 5
	attemptRate  = rate.Limit(1.0 / 12.0)
)

// attemptLimiter throttles login attempts per key (email or address).
type attemptLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newAttemptLimiter() *attemptLimiter {
	return &attemptLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *attemptLimiter) allow(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(attemptRate, attemptBurst)
		l.limiters[key] = lim
	}
	return lim.Allow()
}

// reset clears throttling after a successful login.
func (l *attemptLimiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}
