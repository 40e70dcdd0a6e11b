package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/engine"
	"quiz-engine/internal/infra/memory"
)

func TestStartAndPlayThrough(t *testing.T) {
	ctx := context.Background()
	service := newTestService(domain.Policy{})

	sessionID, snap, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if sessionID == "" {
		t.Fatalf("expected session id")
	}
	if snap.Total != 2 || snap.Index != 0 || snap.Question == nil {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	for _, opt := range []string{"Right", "Four"} {
		if _, err := service.Select(ctx, sessionID, opt); err != nil {
			t.Fatalf("select %s: %v", opt, err)
		}
		sub, _, err := service.Submit(ctx, sessionID)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if !sub.Correct {
			t.Fatalf("expected %s to be correct", opt)
		}
		if _, err := service.Advance(ctx, sessionID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	final, err := service.Snapshot(ctx, sessionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !final.Completed || final.Score != 2 || final.ResultMessage != "Excellent!" {
		t.Fatalf("expected completed quiz with score 2, got %+v", final)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService(domain.Policy{})

	sessionID, _, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel, err := service.Subscribe(ctx, sessionID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, err := service.Select(ctx, sessionID, "Right"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	update := <-ch
	if update.Selected != "Right" {
		t.Fatalf("expected selection in update, got %+v", update)
	}
}

func TestUnknownSessionAndQuiz(t *testing.T) {
	ctx := context.Background()
	service := newTestService(domain.Policy{})

	if _, err := service.Select(ctx, "missing", "Right"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Submit(ctx, "missing"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Start(ctx, "quiz-unknown"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz error, got %v", err)
	}
}

func TestStartRejectsMalformedQuiz(t *testing.T) {
	ctx := context.Background()
	service := newTestService(domain.Policy{})

	if _, _, err := service.Start(ctx, "broken"); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestInvalidStateIsRecoverable(t *testing.T) {
	ctx := context.Background()
	service := newTestService(domain.Policy{})

	sessionID, _, _ := service.Start(ctx, "quiz-1")
	snap, err := service.Advance(ctx, sessionID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if snap.Index != 0 {
		t.Fatalf("expected to stay on first question, got %d", snap.Index)
	}
	if _, err := service.Select(ctx, sessionID, "Right"); err != nil {
		t.Fatalf("session should keep working: %v", err)
	}
}

func TestRetryUnderPracticePolicy(t *testing.T) {
	ctx := context.Background()
	policy, _ := domain.PolicyPreset(domain.PresetPractice)
	service := newTestService(policy)

	sessionID, _, _ := service.Start(ctx, "quiz-1")
	_, _ = service.Select(ctx, sessionID, "Wrong")
	sub, snap, err := service.Submit(ctx, sessionID)
	if err != nil || sub.Correct {
		t.Fatalf("expected incorrect submission, got %+v err=%v", sub, err)
	}
	if snap.Hint != "Not the wrong one" {
		t.Fatalf("expected hint, got %q", snap.Hint)
	}
	snap, err = service.Retry(ctx, sessionID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.AnswerState != domain.Unanswered || snap.Results[0] != domain.Incorrect {
		t.Fatalf("unexpected state after retry %+v", snap)
	}
}

func TestEndAndPruneIdle(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	service := app.NewQuizServiceWithClock(memory.NewSessionStore(), newTestRepo(), domain.Policy{}, clock.Now)

	idle, _, _ := service.Start(ctx, "quiz-1")
	clock.Advance(10 * time.Minute)
	active, _, _ := service.Start(ctx, "quiz-1")

	if n := service.PruneIdle(ctx, 5*time.Minute); n != 1 {
		t.Fatalf("expected 1 pruned session, got %d", n)
	}
	if _, err := service.Snapshot(ctx, idle); err != domain.ErrSessionNotFound {
		t.Fatalf("expected idle session gone, got %v", err)
	}
	if _, err := service.Snapshot(ctx, active); err != nil {
		t.Fatalf("expected active session kept: %v", err)
	}

	service.End(ctx, active)
	if _, err := service.Snapshot(ctx, active); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ended session gone, got %v", err)
	}
}

func TestPruneIdleSparesSessionWithLateInput(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := &lateInputStore{SessionStore: memory.NewSessionStore()}
	service := app.NewQuizServiceWithClock(store, newTestRepo(), domain.Policy{}, clock.Now)

	sessionID, _, _ := service.Start(ctx, "quiz-1")
	clock.Advance(10 * time.Minute)
	store.afterRange = func() {
		if _, err := service.Select(ctx, sessionID, "Right"); err != nil {
			t.Errorf("select: %v", err)
		}
	}

	if n := service.PruneIdle(ctx, 5*time.Minute); n != 0 {
		t.Fatalf("expected no pruned sessions, got %d", n)
	}
	if _, err := service.Snapshot(ctx, sessionID); err != nil {
		t.Fatalf("expected session kept after late input: %v", err)
	}
}

// lateInputStore runs afterRange once a scan finishes, before any session is ended.
type lateInputStore struct {
	*memory.SessionStore
	afterRange func()
}

func (s *lateInputStore) Range(fn func(sessionID string, eng *engine.Engine) bool) {
	s.SessionStore.Range(fn)
	if s.afterRange != nil {
		s.afterRange()
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(policy domain.Policy) *app.QuizService {
	return app.NewQuizService(memory.NewSessionStore(), newTestRepo(), policy)
}

func newTestRepo() *memory.QuizRepository {
	return memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					Text:          "Select the right option",
					Options:       []string{"Wrong", "Right"},
					CorrectAnswer: "Right",
					Hint:          "Not the wrong one",
				},
				{
					Text:          "What is 2 + 2?",
					Options:       []string{"Three", "Four", "Five"},
					CorrectAnswer: "Four",
				},
			},
		},
		"broken": {
			ID: "broken",
			Questions: []domain.Question{
				{Text: "?", Options: []string{"a"}, CorrectAnswer: "b"},
			},
		},
	}), 5*time.Minute)
}
