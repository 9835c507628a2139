package memory

import (
	"context"
	"sync"
	"time"

	"movie-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Every Get or Save extends a session by ttl; Sweep drops the ones that idled out.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	controller *app.Controller
	expiresAt  time.Time
}

// NewSessionStore creates a store. A ttl of zero or less keeps sessions until deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Save(c *app.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[c.ID()] = storedSession{controller: c, expiresAt: s.deadline()}
}

func (s *SessionStore) Get(sessionID string) (*app.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if s.expired(entry, s.clock()) {
		delete(s.sessions, sessionID)
		return nil, false
	}
	entry.expiresAt = s.deadline()
	s.sessions[sessionID] = entry
	return entry.controller, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Sweep removes idle sessions and reports how many were dropped.
func (s *SessionStore) Sweep(_ context.Context) int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) deadline() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.clock().Add(s.ttl)
}

func (s *SessionStore) expired(entry storedSession, now time.Time) bool {
	return !entry.expiresAt.IsZero() && !entry.expiresAt.After(now)
}
