// Package session holds the current patient/session token. The token is an
// opaque string correlating the client to a history on the backend; it is
// sanitized on every write and mirrored to a durable single-slot store so
// it survives restarts. Persistence is best-effort: a durable read or write
// failure is swallowed and the session reverts to tokenless behavior.
package session

import (
	"regexp"
	"sync"
)

var tokenStrip = regexp.MustCompile(`[^A-Za-z0-9_:.\-]+`)

// Sanitize strips every character outside [A-Za-z0-9_:.-]. Pure and total;
// applying it twice is the same as applying it once.
func Sanitize(raw string) string {
	return tokenStrip.ReplaceAllString(raw, "")
}

// TokenStore is the durable single-slot backing for the session token.
// Read returns "" when no value has been written.
type TokenStore interface {
	Read() (string, error)
	Write(token string) error
}

// Store owns the current session token. At most one token is active at a
// time; setting a new one silently replaces the old.
type Store struct {
	mu      sync.Mutex
	token   string
	durable TokenStore
}

// NewStore creates a Store backed by durable. durable may be nil, in which
// case the token lives only in memory.
func NewStore(durable TokenStore) *Store {
	return &Store{durable: durable}
}

// Get returns the current token. When no in-memory token is set it attempts
// one durable read, sanitizes and caches the result. A failed or empty
// durable read yields ("", false).
func (s *Store) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, true
	}
	if s.durable != nil {
		if stored, err := s.durable.Read(); err == nil {
			s.token = Sanitize(stored)
		}
	}
	return s.token, s.token != ""
}

// Set sanitizes raw and stores it in memory and durably. Last writer wins;
// a durable-write failure is swallowed.
func (s *Store) Set(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = Sanitize(raw)
	if s.durable != nil {
		_ = s.durable.Write(s.token)
	}
}
