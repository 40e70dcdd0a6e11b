package redis

import (
	"context"
	"sync"
	"time"

	"quiz-engine/internal/engine"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Engines stay in a local map; timers and subscribers cannot leave the process.
//   - Redis holds a liveness marker per session so other instances and
//     operators can see which sessions are open.
//   - Touch refreshes the marker; Delete clears it.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*engine.Engine
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*engine.Engine),
	}
}

func (s *SessionStore) Put(sessionID string, eng *engine.Engine) {
	s.mu.Lock()
	s.sessions[sessionID] = eng
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(sessionID), eng.Snapshot().QuizID, s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*engine.Engine, bool) {
	s.mu.RLock()
	eng, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Err()
	}
	return eng, ok
}

func (s *SessionStore) Delete(sessionID string) (*engine.Engine, bool) {
	s.mu.Lock()
	eng, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
	}
	return eng, ok
}

func (s *SessionStore) Range(fn func(sessionID string, eng *engine.Engine) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, eng := range s.sessions {
		if !fn(id, eng) {
			return
		}
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
