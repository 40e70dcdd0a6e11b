package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFeedbackWireFormatUsesMilliseconds(t *testing.T) {
	data, err := json.Marshal(Submission{
		Correct:  true,
		Feedback: Feedback{Popup: true, Confetti: true, Badge: BadgeCorrect, PopupDuration: 3 * time.Second},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `"popupDurationMs":3000`) || !strings.Contains(got, `"badge":"Good Job!"`) {
		t.Fatalf("unexpected payload %s", got)
	}
	if strings.Contains(got, "3000000000") {
		t.Fatalf("duration leaked as nanoseconds: %s", got)
	}

	var back Submission
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Feedback.PopupDuration != 3*time.Second || back.Feedback.Badge != BadgeCorrect {
		t.Fatalf("unexpected decoded feedback %+v", back.Feedback)
	}
}
