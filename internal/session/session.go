package session

import "sync"

// Identity is the serialized user record kept alongside the credential.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Store holds the session credential and identity for this edge process.
// It is created at application start, handed to whatever needs it, and
// cleared on logout or a rejected credential. There is no ambient global;
// tests inject their own.
type Store struct {
	mu       sync.RWMutex
	token    string
	identity Identity
}

func NewStore() *Store {
	return &Store{}
}

// Set installs a credential and identity, replacing any previous session.
func (s *Store) Set(token string, identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = identity
}

// Token returns the bearer credential, empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Authenticated reports whether a session credential is present. This is the
// single switch between remote and guest cart modes.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Clear drops both credential and identity. Invoked on logout and on a 401
// from the API.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = Identity{}
}
