package memory

import (
	"testing"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/engine"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	eng, err := engine.New(sampleQuiz(), domain.Policy{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	store.Put("s1", eng)
	if got, ok := store.Get("s1"); !ok || got != eng {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	if _, ok := store.Delete("s1"); !ok {
		t.Fatalf("expected delete to find session")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := store.Delete("s1"); ok {
		t.Fatalf("expected second delete to miss")
	}
}
