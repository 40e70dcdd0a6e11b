package redis

import (
	"testing"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/engine"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	eng, err := engine.New(sampleQuiz(), domain.Policy{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	store.Put("s1", eng)
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s1"); got != "quiz-1" {
		t.Fatalf("expected marker to hold quiz id, got %q", got)
	}

	mr.FastForward(30 * time.Second)
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed on access, got %v", ttl)
	}

	if _, ok := store.Delete("s1"); !ok {
		t.Fatalf("expected delete to find session")
	}
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
}
