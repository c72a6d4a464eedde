package chat

import (
	"context"
	"sync"
)

// SessionStore owns session lifecycle. Implementations must return
// ErrSessionNotFound for unknown users and must never alias stored sessions
// with caller-held ones.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// MemorySessionStore holds sessions in process memory. Sessions live for
// the process lifetime only; this is the documented default, with the redis
// store as the durable-ish alternative.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Get returns a copy of the stored session.
func (s *MemorySessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Save stores a copy of the session keyed by user id.
func (s *MemorySessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.UserID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	s.sessions[session.UserID] = session.Clone()
	s.mu.Unlock()
	return nil
}
