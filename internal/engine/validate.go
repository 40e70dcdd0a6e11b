package engine

import (
	"fmt"

	"quiz-engine/internal/domain"
)

// Validate checks a question set before any question is shown.
// Every failure wraps domain.ErrConfiguration.
func Validate(questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: question list is empty", domain.ErrConfiguration)
	}
	for i, q := range questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", domain.ErrConfiguration, i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", domain.ErrConfiguration, i)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if opt == "" {
				return fmt.Errorf("%w: question %d has an empty option", domain.ErrConfiguration, i)
			}
			if _, dup := seen[opt]; dup {
				return fmt.Errorf("%w: question %d repeats option %q", domain.ErrConfiguration, i, opt)
			}
			seen[opt] = struct{}{}
		}
		if _, ok := seen[q.CorrectAnswer]; !ok {
			return fmt.Errorf("%w: question %d correct answer %q is not an option", domain.ErrConfiguration, i, q.CorrectAnswer)
		}
	}
	return nil
}
