package auth

import (
	"sync"
	"time"
)

// RevocationStore tracks session token IDs invalidated before their natural
// expiry. A signed token alone cannot be recalled, so logout parks its jti
// here until the token would have expired anyway.
type RevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> token expiry
}

// NewRevocationStore creates an empty revocation store.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{revoked: make(map[string]time.Time)}
}

// Revoke marks a token ID as invalid until the given expiry.
func (r *RevocationStore) Revoke(jti string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = expiresAt
}

// IsRevoked reports whether a token ID has been revoked.
func (r *RevocationStore) IsRevoked(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[jti]
	return ok
}

// Sweep drops entries whose tokens have expired on their own.
func (r *RevocationStore) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for jti, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, jti)
			removed++
		}
	}
	return removed
}
