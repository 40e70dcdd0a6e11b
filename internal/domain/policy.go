package domain

import (
	"fmt"
	"time"
)

// Policy controls retry, hint and lock behaviour after an incorrect submission.
type Policy struct {
	AllowImmediateRetry bool          `json:"allowImmediateRetry" yaml:"allowImmediateRetry"`
	HintOnIncorrect     bool          `json:"hintOnIncorrect" yaml:"hintOnIncorrect"`
	RetryDelay          time.Duration `json:"retryDelay" yaml:"retryDelay"`
}

// RetryAllowed reports whether an incorrect answer may be retried at all,
// either immediately or once the lock expires.
func (p Policy) RetryAllowed() bool {
	return p.AllowImmediateRetry || p.RetryDelay > 0
}

// Delayed reports whether an incorrect submission locks selection for RetryDelay.
func (p Policy) Delayed() bool {
	return !p.AllowImmediateRetry && p.RetryDelay > 0
}

const (
	PresetStrict   = "strict"
	PresetPractice = "practice"
	PresetTimed    = "timed"
)

// DefaultRetryDelay is the lock applied by the timed preset.
const DefaultRetryDelay = 2 * time.Second

// PolicyPreset resolves a named policy.
func PolicyPreset(name string) (Policy, error) {
	switch name {
	case "", PresetStrict:
		return Policy{}, nil
	case PresetPractice:
		return Policy{AllowImmediateRetry: true, HintOnIncorrect: true}, nil
	case PresetTimed:
		return Policy{HintOnIncorrect: true, RetryDelay: DefaultRetryDelay}, nil
	}
	return Policy{}, fmt.Errorf("unknown policy preset %q", name)
}
