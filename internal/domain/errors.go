package domain

import "errors"

var (
	// ErrInvalidState is returned when an operation's precondition is not met.
	// The engine state is left untouched; callers are expected to ignore the action.
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrConfiguration indicates a malformed question set detected at load time.
	ErrConfiguration = errors.New("invalid quiz configuration")
	// ErrSessionNotFound is returned when a play session does not exist or has ended.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrOptionNotFound indicates a selected option is not offered by the current question.
	ErrOptionNotFound = errors.New("option not found")
)
