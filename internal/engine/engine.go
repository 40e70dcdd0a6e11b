// Package engine implements the per-player quiz progression state machine.
package engine

import (
	"fmt"
	"sync"
	"time"

	"quiz-engine/internal/domain"
)

// DefaultPopupDuration is how long presentation layers keep the result popup open.
const DefaultPopupDuration = 3 * time.Second

// Timer is a pending scheduled effect.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, for deterministic lock checks in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithScheduler replaces the timer used for delayed unlocks.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithPopupDuration sets the popup duration reported in submission feedback.
func WithPopupDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.popup = d
		}
	}
}

// Engine owns the progression state of one play-through of a quiz.
// All methods are safe for concurrent use; mutations are serialised.
type Engine struct {
	quiz   domain.Quiz
	policy domain.Policy
	popup  time.Duration
	now    func() time.Time
	sched  Scheduler

	mu          sync.Mutex
	version     uint64
	index       int
	score       int
	selected    string
	state       domain.AnswerState
	results     []domain.QuestionResult
	completed   bool
	lockedUntil time.Time
	unlock      Timer
	lastActive  time.Time
	closed      bool
	subscribers map[chan domain.Snapshot]struct{}
}

// New validates quiz and returns an engine positioned on its first question.
// A malformed question set yields an error wrapping domain.ErrConfiguration.
func New(quiz domain.Quiz, policy domain.Policy, opts ...Option) (*Engine, error) {
	if err := Validate(quiz.Questions); err != nil {
		if quiz.ID != "" {
			return nil, fmt.Errorf("quiz %s: %w", quiz.ID, err)
		}
		return nil, err
	}
	e := &Engine{
		quiz:        quiz,
		policy:      policy,
		popup:       DefaultPopupDuration,
		now:         time.Now,
		sched:       realScheduler{},
		results:     make([]domain.QuestionResult, len(quiz.Questions)),
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastActive = e.now()
	return e, nil
}

// Policy returns the retry/hint policy the engine was built with.
func (e *Engine) Policy() domain.Policy {
	return e.policy
}

// Select marks option as the current choice. It fails once an answer has
// been submitted for the current question or the quiz has completed.
func (e *Engine) Select(option string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touchLocked()

	if e.closed || e.completed || e.state != domain.Unanswered {
		return domain.ErrInvalidState
	}
	if !e.offersLocked(option) {
		return domain.ErrOptionNotFound
	}
	if e.selected == option {
		return nil
	}
	e.selected = option
	e.commitLocked()
	return nil
}

// Submit locks in the selected option. Only the first submission of a
// question is recorded in the results and counted towards the score.
func (e *Engine) Submit() (domain.Submission, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touchLocked()

	if e.closed || e.completed || e.state != domain.Unanswered || e.selected == "" {
		return domain.Submission{}, domain.ErrInvalidState
	}

	correct := e.selected == e.quiz.Questions[e.index].CorrectAnswer
	if e.results[e.index] == domain.Unknown {
		if correct {
			e.results[e.index] = domain.Correct
			e.score++
		} else {
			e.results[e.index] = domain.Incorrect
		}
	}
	if correct {
		e.state = domain.CorrectSubmitted
	} else {
		e.state = domain.IncorrectSubmitted
	}
	if !correct && e.policy.Delayed() {
		// the callback holds the version this submission commits; any later
		// transition changes it and turns the callback into a no-op
		token := e.version + 1
		e.lockedUntil = e.now().Add(e.policy.RetryDelay)
		e.unlock = e.sched.AfterFunc(e.policy.RetryDelay, func() { e.expireLock(token) })
	}
	e.commitLocked()

	badge := domain.BadgeIncorrect
	if correct {
		badge = domain.BadgeCorrect
	}
	return domain.Submission{
		Correct: correct,
		Feedback: domain.Feedback{
			Shake:         !correct,
			Popup:         true,
			Confetti:      correct,
			Badge:         badge,
			PopupDuration: e.popup,
		},
	}, nil
}

// Retry clears an incorrect submission so the question can be answered
// again for practice. The recorded result and the score are unchanged.
func (e *Engine) Retry() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touchLocked()

	if e.closed || e.completed || e.state != domain.IncorrectSubmitted || !e.policy.RetryAllowed() {
		return domain.ErrInvalidState
	}
	if e.lockedLocked() {
		return domain.ErrInvalidState
	}
	e.resetQuestionLocked()
	e.commitLocked()
	return nil
}

// Advance moves to the next question, or completes the quiz after the last one.
func (e *Engine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touchLocked()

	if e.closed || e.completed || e.state == domain.Unanswered {
		return domain.ErrInvalidState
	}
	if e.index+1 < len(e.quiz.Questions) {
		e.index++
		e.resetQuestionLocked()
	} else {
		e.stopUnlockLocked()
		e.completed = true
	}
	e.commitLocked()
	return nil
}

// Restart returns the session to its initial state. It is always legal.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touchLocked()
	if e.closed {
		return
	}

	e.index = 0
	e.score = 0
	e.completed = false
	for i := range e.results {
		e.results[i] = domain.Unknown
	}
	e.resetQuestionLocked()
	e.commitLocked()
}

// Snapshot returns the current observable state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Version returns the state-version token; it changes on every transition.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// LockedUntil returns when selection becomes possible again, or the zero
// time if no lock is pending.
func (e *Engine) LockedUntil() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.lockedLocked() {
		return time.Time{}
	}
	return e.lockedUntil
}

// Locked reports whether an incorrect submission is still locking selection.
func (e *Engine) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lockedLocked()
}

// LastActive returns the time of the most recent input event.
func (e *Engine) LastActive() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

// Subscribe returns a channel that receives a snapshot after every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (e *Engine) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	e.mu.Lock()
	// queued before registration so no broadcast or Close can overtake it
	ch <- e.snapshotLocked()
	if e.closed {
		e.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	e.subscribers[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Close stops any pending unlock and closes all subscriber channels.
// Further input events fail with domain.ErrInvalidState.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopUnlockLocked()
	e.version++
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
}

// expireLock re-enables selection once the retry delay has passed, unless
// the state has moved on since the lock was armed.
func (e *Engine) expireLock(token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.version != token || e.state != domain.IncorrectSubmitted {
		return
	}
	e.unlock = nil
	e.resetQuestionLocked()
	e.commitLocked()
}

func (e *Engine) touchLocked() {
	e.lastActive = e.now()
}

func (e *Engine) offersLocked(option string) bool {
	for _, opt := range e.quiz.Questions[e.index].Options {
		if opt == option {
			return true
		}
	}
	return false
}

func (e *Engine) lockedLocked() bool {
	return e.state == domain.IncorrectSubmitted && !e.lockedUntil.IsZero() && e.now().Before(e.lockedUntil)
}

func (e *Engine) resetQuestionLocked() {
	e.stopUnlockLocked()
	e.selected = ""
	e.state = domain.Unanswered
}

func (e *Engine) stopUnlockLocked() {
	if e.unlock != nil {
		e.unlock.Stop()
		e.unlock = nil
	}
	e.lockedUntil = time.Time{}
}

// commitLocked bumps the version token and publishes the new state.
func (e *Engine) commitLocked() {
	e.version++
	e.broadcastLocked()
}

func (e *Engine) broadcastLocked() {
	if len(e.subscribers) == 0 {
		return
	}
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest snapshot so a slow reader never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	total := len(e.quiz.Questions)
	results := make([]domain.QuestionResult, total)
	copy(results, e.results)

	snap := domain.Snapshot{
		QuizID:      e.quiz.ID,
		Version:     e.version,
		Index:       e.index,
		Total:       total,
		Selected:    e.selected,
		AnswerState: e.state,
		Results:     results,
		Score:       e.score,
		Completed:   e.completed,
	}
	if e.completed {
		snap.Percent = Percent(e.score, total)
		snap.ResultMessage = ResultMessage(e.score, total)
		return snap
	}

	q := e.quiz.Questions[e.index]
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	snap.Question = &domain.QuestionView{Text: q.Text, Options: options, Code: q.Code}

	if e.lockedLocked() {
		snap.Locked = true
		until := e.lockedUntil
		snap.LockedUntil = &until
	}
	if e.policy.HintOnIncorrect && e.state == domain.IncorrectSubmitted {
		snap.Hint = q.Hint
	}
	snap.CanSelect = e.state == domain.Unanswered && !e.closed
	snap.CanSubmit = snap.CanSelect && e.selected != ""
	snap.CanRetry = e.state == domain.IncorrectSubmitted && e.policy.RetryAllowed() && !snap.Locked && !e.closed
	snap.CanAdvance = e.state != domain.Unanswered && !e.closed
	return snap
}

// Percent returns score as a whole percentage of total.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return score * 100 / total
}

// ResultMessage grades a finished quiz from its final score.
func ResultMessage(score, total int) string {
	switch p := Percent(score, total); {
	case p >= 80:
		return "Excellent!"
	case p >= 50:
		return "Good Job!"
	default:
		return "Keep Trying!"
	}
}
