package domain

import (
	"encoding/json"
	"time"
)

// Question models an MCQ question whose correct answer is one of its options.
type Question struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
	Code          string   `json:"code,omitempty" yaml:"code,omitempty"`
	Hint          string   `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Quiz is a named, ordered question set.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuestionView is the current question as shown to a player; the answer is withheld.
type QuestionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Code    string   `json:"code,omitempty"`
}

// Badge texts shown in the result popup.
const (
	BadgeCorrect   = "Good Job!"
	BadgeIncorrect = "Try Again!"
)

// Feedback tells a presentation layer which effects to play after a submission.
// On the wire the popup duration is whole milliseconds (popupDurationMs).
type Feedback struct {
	Shake         bool
	Popup         bool
	Confetti      bool
	Badge         string
	PopupDuration time.Duration
}

type feedbackJSON struct {
	Shake           bool   `json:"shake"`
	Popup           bool   `json:"popup"`
	Confetti        bool   `json:"confetti"`
	Badge           string `json:"badge,omitempty"`
	PopupDurationMs int64  `json:"popupDurationMs"`
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	return json.Marshal(feedbackJSON{
		Shake:           f.Shake,
		Popup:           f.Popup,
		Confetti:        f.Confetti,
		Badge:           f.Badge,
		PopupDurationMs: f.PopupDuration.Milliseconds(),
	})
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	var raw feedbackJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Feedback{
		Shake:         raw.Shake,
		Popup:         raw.Popup,
		Confetti:      raw.Confetti,
		Badge:         raw.Badge,
		PopupDuration: time.Duration(raw.PopupDurationMs) * time.Millisecond,
	}
	return nil
}

// Submission is the outcome of locking in the selected option.
type Submission struct {
	Correct  bool     `json:"correct"`
	Feedback Feedback `json:"feedback"`
}

// Snapshot is a read-only view of a quiz session.
type Snapshot struct {
	QuizID        string           `json:"quizId"`
	Version       uint64           `json:"version"`
	Index         int              `json:"index"`
	Total         int              `json:"total"`
	Question      *QuestionView    `json:"question,omitempty"`
	Selected      string           `json:"selected,omitempty"`
	AnswerState   AnswerState      `json:"answerState"`
	Results       []QuestionResult `json:"results"`
	Score         int              `json:"score"`
	Completed     bool             `json:"completed"`
	Locked        bool             `json:"locked"`
	LockedUntil   *time.Time       `json:"lockedUntil,omitempty"`
	Hint          string           `json:"hint,omitempty"`
	CanSelect     bool             `json:"canSelect"`
	CanSubmit     bool             `json:"canSubmit"`
	CanRetry      bool             `json:"canRetry"`
	CanAdvance    bool             `json:"canAdvance"`
	Percent       int              `json:"percent,omitempty"`
	ResultMessage string           `json:"resultMessage,omitempty"`
}

// QuizSummary describes a quiz without exposing its answers.
type QuizSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Questions int    `json:"questions"`
}

// Summary returns the answer-free description of q.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{ID: q.ID, Title: q.Title, Questions: len(q.Questions)}
}
