package memory

import (
	"context"
	"fmt"
	"os"
	"sort"

	"quiz-engine/internal/domain"

	"gopkg.in/yaml.v3"
)

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// IDs lists the quiz IDs the loader serves, sorted.
func (l *StaticQuizLoader) IDs() []string {
	ids := make([]string, 0, len(l.quizzes))
	for id := range l.quizzes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type quizFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// ReadQuizFile parses a YAML document of the form `quizzes: [{id, title, questions}]`.
func ReadQuizFile(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f quizFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, q := range f.Quizzes {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: quiz %d in %s has no id", domain.ErrConfiguration, i, path)
		}
	}
	return f.Quizzes, nil
}

// NewFileQuizLoader reads every quiz in a YAML file up front.
func NewFileQuizLoader(path string) (*StaticQuizLoader, error) {
	quizzes, err := ReadQuizFile(path)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}
	return NewStaticQuizLoader(byID), nil
}

// BuiltinQuizzes returns the question sets served when no other source is configured.
func BuiltinQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"general": {
			ID:    "general",
			Title: "General Knowledge",
			Questions: []domain.Question{
				{Text: "What is the capital of France?", Options: []string{"Paris", "Berlin", "Madrid", "Rome"}, CorrectAnswer: "Paris"},
				{Text: "Who developed the theory of relativity?", Options: []string{"Newton", "Einstein", "Galileo", "Tesla"}, CorrectAnswer: "Einstein"},
				{Text: "Which planet is known as the Red Planet?", Options: []string{"Earth", "Venus", "Mars", "Jupiter"}, CorrectAnswer: "Mars"},
				{Text: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectAnswer: "Pacific"},
				{Text: "Who painted the Mona Lisa?", Options: []string{"Vincent van Gogh", "Pablo Picasso", "Leonardo da Vinci", "Claude Monet"}, CorrectAnswer: "Leonardo da Vinci"},
				{Text: "What is the hardest natural substance on Earth?", Options: []string{"Gold", "Diamond", "Iron", "Quartz"}, CorrectAnswer: "Diamond"},
			},
		},
		"react": {
			ID:    "react",
			Title: "React Basics",
			Questions: []domain.Question{
				{
					Text:          "What will be the output of the following code?",
					Code:          "console.log('Hello')",
					Options:       []string{"Hello", "undefined", "Error", "null"},
					CorrectAnswer: "Hello",
					Hint:          "Check the console output",
				},
				{
					Text:          "What is the default port for a React development server?",
					Code:          "console.log('Starting React server...');",
					Options:       []string{"3000", "8080", "5000", "8000"},
					CorrectAnswer: "3000",
					Hint:          "Check the commonly used port for React apps.",
				},
				{
					Text:          "Which of the following is used to create a functional component in React?",
					Code:          "const MyComponent = () => { return <div>Hello World</div>; };",
					Options:       []string{"class MyComponent", "function MyComponent", "const MyComponent", "createComponent"},
					CorrectAnswer: "const MyComponent",
					Hint:          "Functional components are defined using an arrow function or the function keyword.",
				},
				{
					Text:          "What is the purpose of useEffect hook in React?",
					Code:          "useEffect(() => { console.log('Effect'); }, []);",
					Options:       []string{"To manage state", "To manage side effects", "To render components", "To handle events"},
					CorrectAnswer: "To manage side effects",
					Hint:          "Consider what happens when components mount or update.",
				},
			},
		},
	}
}
