package app

import (
	"context"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/engine"
	"quiz-engine/internal/metrics"

	"github.com/google/uuid"
)

// SessionRepository abstracts where running play sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(sessionID string, eng *engine.Engine)
	Get(sessionID string) (*engine.Engine, bool)
	Delete(sessionID string) (*engine.Engine, bool)
	Range(fn func(sessionID string, eng *engine.Engine) bool)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizService routes player input events to the engine of their session.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	policy   domain.Policy
	opts     []engine.Option
	now      func() time.Time
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, policy domain.Policy, opts ...engine.Option) *QuizService {
	return &QuizService{sessions: store, quizzes: quizzes, policy: policy, opts: opts, now: time.Now}
}

// NewQuizServiceWithClock is test-only for deterministic idle pruning.
func NewQuizServiceWithClock(store SessionRepository, quizzes QuizRepository, policy domain.Policy, now func() time.Time, opts ...engine.Option) *QuizService {
	s := NewQuizService(store, quizzes, policy, append(opts, engine.WithClock(now))...)
	s.now = now
	return s
}

// Policy returns the retry/hint policy applied to new sessions.
func (s *QuizService) Policy() domain.Policy {
	return s.policy
}

// Quiz returns quiz content by ID.
func (s *QuizService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Start loads quizID, validates it and opens a new play session.
// A malformed question set fails here, before any question is shown.
func (s *QuizService) Start(ctx context.Context, quizID string) (string, domain.Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", domain.Snapshot{}, err
	}
	eng, err := engine.New(quiz, s.policy, s.opts...)
	if err != nil {
		return "", domain.Snapshot{}, err
	}

	sessionID := uuid.NewString()
	s.sessions.Put(sessionID, eng)
	metrics.SessionsStarted.WithLabelValues(quizID).Inc()
	metrics.ActiveSessions.Inc()
	return sessionID, eng.Snapshot(), nil
}

// Select records the player's current choice.
func (s *QuizService) Select(_ context.Context, sessionID, option string) (domain.Snapshot, error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	if err := eng.Select(option); err != nil {
		return eng.Snapshot(), err
	}
	return eng.Snapshot(), nil
}

// Submit locks in the selected option and reports the effects to play.
func (s *QuizService) Submit(_ context.Context, sessionID string) (domain.Submission, domain.Snapshot, error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Submission{}, domain.Snapshot{}, domain.ErrSessionNotFound
	}
	sub, err := eng.Submit()
	snap := eng.Snapshot()
	if err != nil {
		return sub, snap, err
	}
	metrics.Submissions.WithLabelValues(snap.QuizID, outcome(sub.Correct)).Inc()
	return sub, snap, nil
}

// Retry clears an incorrect submission when the policy allows it.
func (s *QuizService) Retry(_ context.Context, sessionID string) (domain.Snapshot, error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	err := eng.Retry()
	if err == nil {
		metrics.Retries.WithLabelValues(eng.Snapshot().QuizID).Inc()
	}
	return eng.Snapshot(), err
}

// Advance moves to the next question or completes the quiz.
func (s *QuizService) Advance(_ context.Context, sessionID string) (domain.Snapshot, error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	if err := eng.Advance(); err != nil {
		return eng.Snapshot(), err
	}
	snap := eng.Snapshot()
	if snap.Completed {
		metrics.Completions.WithLabelValues(snap.QuizID).Inc()
		metrics.FinalScore.WithLabelValues(snap.QuizID).Observe(float64(snap.Percent))
	}
	return snap, nil
}

// Restart resets the session to its first question.
func (s *QuizService) Restart(_ context.Context, sessionID string) (domain.Snapshot, error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	eng.Restart()
	return eng.Snapshot(), nil
}

// Snapshot returns the observable state of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return eng.Snapshot(), nil
}

// Subscribe returns a channel that receives a snapshot after every transition of a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	eng, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := eng.Subscribe()
	return ch, cancel, nil
}

// End closes a session and drops it from the store.
func (s *QuizService) End(_ context.Context, sessionID string) {
	eng, ok := s.sessions.Delete(sessionID)
	if !ok {
		return
	}
	eng.Close()
	metrics.SessionsEnded.Inc()
	metrics.ActiveSessions.Dec()
}

// PruneIdle ends sessions with no input for longer than maxIdle and returns how many were ended.
func (s *QuizService) PruneIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	var stale []string
	s.sessions.Range(func(sessionID string, eng *engine.Engine) bool {
		if eng.LastActive().Before(cutoff) {
			stale = append(stale, sessionID)
		}
		return true
	})
	ended := 0
	for _, id := range stale {
		// input may have arrived since the scan
		if eng, ok := s.sessions.Get(id); !ok || !eng.LastActive().Before(cutoff) {
			continue
		}
		s.End(ctx, id)
		ended++
	}
	return ended
}

func outcome(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}
