package memory

import (
	"sync"

	"quiz-engine/internal/engine"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Engine
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*engine.Engine),
	}
}

func (s *SessionStore) Put(sessionID string, eng *engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = eng
}

func (s *SessionStore) Get(sessionID string) (*engine.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eng, ok := s.sessions[sessionID]
	return eng, ok
}

func (s *SessionStore) Delete(sessionID string) (*engine.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eng, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	return eng, ok
}

// Range calls fn for each session until fn returns false. fn must not
// modify the store.
func (s *SessionStore) Range(fn func(sessionID string, eng *engine.Engine) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, eng := range s.sessions {
		if !fn(id, eng) {
			return
		}
	}
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
