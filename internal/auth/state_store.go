package auth

import (
	"sync"
	"time"
)

// stateTTL bounds the federated-login round trip. A callback arriving after
// this window fails.
const stateTTL = 10 * time.Minute

// StateStore holds the anti-forgery state nonces issued at the start of a
// federated login. Each nonce is single-use and short-lived; consuming an
// unknown or expired nonce fails, which is what defeats forged callbacks.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]time.Time // state -> expiry
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{pending: make(map[string]time.Time)}
}

// Put registers a freshly issued state nonce.
func (s *StateStore) Put(state string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[state] = now.Add(stateTTL)
}

// Consume removes the nonce and reports whether it was live. A second call
// for the same nonce returns false.
func (s *StateStore) Consume(state string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.pending[state]
	if !ok {
		return false
	}
	delete(s.pending, state)
	return now.Before(exp)
}

// Sweep drops nonces whose login window has lapsed.
func (s *StateStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for state, exp := range s.pending {
		if now.After(exp) {
			delete(s.pending, state)
			removed++
		}
	}
	return removed
}
