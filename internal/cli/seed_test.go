package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSeedSourceFallsBackToBuiltins(t *testing.T) {
	quizzes, err := seedSource("")
	if err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if len(quizzes) != 2 || quizzes[0].ID != "general" || quizzes[1].ID != "react" {
		t.Fatalf("expected built-in quizzes in id order, got %+v", quizzes)
	}
}

func TestSeedSourceReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	doc := "quizzes:\n  - id: one\n    questions:\n      - text: Q\n        options: [a, b]\n        correctAnswer: a\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	quizzes, err := seedSource(path)
	if err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].ID != "one" || quizzes[0].Questions[0].CorrectAnswer != "a" {
		t.Fatalf("unexpected quizzes: %+v", quizzes)
	}
}
