package domain

import (
	"encoding/json"
	"fmt"
)

// AnswerState tracks whether the current question has been submitted.
type AnswerState int

const (
	Unanswered AnswerState = iota
	CorrectSubmitted
	IncorrectSubmitted
)

var answerStateNames = [...]string{"unanswered", "correct", "incorrect"}

func (s AnswerState) String() string {
	if s < 0 || int(s) >= len(answerStateNames) {
		return fmt.Sprintf("AnswerState(%d)", int(s))
	}
	return answerStateNames[s]
}

func (s AnswerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// QuestionResult is the permanent record of a question's first submission.
type QuestionResult int

const (
	Unknown QuestionResult = iota
	Correct
	Incorrect
)

var questionResultNames = [...]string{"unknown", "correct", "incorrect"}

func (r QuestionResult) String() string {
	if r < 0 || int(r) >= len(questionResultNames) {
		return fmt.Sprintf("QuestionResult(%d)", int(r))
	}
	return questionResultNames[r]
}

func (r QuestionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *QuestionResult) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range questionResultNames {
		if n == name {
			*r = QuestionResult(i)
			return nil
		}
	}
	return fmt.Errorf("unknown question result %q", name)
}

func (s *AnswerState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range answerStateNames {
		if n == name {
			*s = AnswerState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown answer state %q", name)
}
