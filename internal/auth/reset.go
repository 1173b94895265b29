package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// resetTTL is how long a password reset token stays valid.
const resetTTL = time.Hour

// resetTokens holds pending password reset tokens in memory. Tokens do
// not survive a restart, which is acceptable for their lifetime.
type resetTokens struct {
	mu     sync.Mutex
	tokens map[string]resetEntry
}

type resetEntry struct {
	userID  int64
	expires time.Time
}

func newResetTokens() *resetTokens {
	return &resetTokens{tokens: make(map[string]resetEntry)}
}

// issue creates a fresh token for a user.
func (r *resetTokens) issue(userID int64, now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop whatever has expired while we are here.
	for t, e := range r.tokens {
		if now.After(e.expires) {
			delete(r.tokens, t)
		}
	}

	token := uuid.NewString()
	r.tokens[token] = resetEntry{userID: userID, expires: now.Add(resetTTL)}
	return token
}

// redeem consumes a token and returns the user it belongs to.
func (r *resetTokens) redeem(token string, now time.Time) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tokens[token]
	if !ok || now.After(e.expires) {
		delete(r.tokens, token)
		return 0, false
	}
	delete(r.tokens, token)
	return e.userID, true
}
