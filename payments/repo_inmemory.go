package payments

import (
	"fmt"
	"sync"
)

// InMemorySessionRepo is an in-memory implementation of Repo. Sessions live
// for the process lifetime: no eviction, no TTL, no durability. The upstream
// API remains the system of record for actual payment execution, so losing
// this map on restart is an accepted limitation.
type InMemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewInMemorySessionRepo creates a new in-memory session repository
func NewInMemorySessionRepo() *InMemorySessionRepo {
	return &InMemorySessionRepo{
		sessions: make(map[string]Session),
	}
}

// Upsert creates or replaces a session under the given id
func (r *InMemorySessionRepo) Upsert(id string, session Session) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = session
	return nil
}

// Get retrieves a session by id
func (r *InMemorySessionRepo) Get(id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	return session, nil
}

// List returns all sessions. Iteration order is not significant to callers.
func (r *InMemorySessionRepo) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// FindByToken scans for a session whose id or correlation token matches.
func (r *InMemorySessionRepo) FindByToken(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if session, ok := r.sessions[token]; ok {
		return session, nil
	}
	for _, session := range r.sessions {
		if session.CorrelationToken == token {
			return session, nil
		}
	}
	return Session{}, ErrSessionNotFound
}
