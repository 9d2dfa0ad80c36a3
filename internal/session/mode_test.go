package session

import "testing"

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		mode        Mode
		interactive bool
		onCorrect   AdvanceRule
		onIncorrect AdvanceRule
		feedback    FeedbackRule
		resubmit    bool
		reset       bool
	}{
		{ModePractice, true, AdvanceStay, AdvanceStay, FeedbackAfterSubmit, false, true},
		{ModeFast, true, AdvanceDelayed, AdvanceStay, FeedbackAfterSubmit, false, true},
		{ModeTest, true, AdvanceImmediate, AdvanceImmediate, FeedbackDeferred, true, false},
		{ModeStudy, false, AdvanceStay, AdvanceStay, FeedbackImmediate, true, false},
		// Unknown modes fall back to practice behavior.
		{Mode("bogus"), true, AdvanceStay, AdvanceStay, FeedbackAfterSubmit, false, true},
	}

	for _, tt := range tests {
		p := PolicyFor(tt.mode)
		if p.Interactive != tt.interactive {
			t.Errorf("%s: Interactive = %v, want %v", tt.mode, p.Interactive, tt.interactive)
		}
		if p.OnCorrect != tt.onCorrect {
			t.Errorf("%s: OnCorrect = %v, want %v", tt.mode, p.OnCorrect, tt.onCorrect)
		}
		if p.OnIncorrect != tt.onIncorrect {
			t.Errorf("%s: OnIncorrect = %v, want %v", tt.mode, p.OnIncorrect, tt.onIncorrect)
		}
		if p.Feedback != tt.feedback {
			t.Errorf("%s: Feedback = %v, want %v", tt.mode, p.Feedback, tt.feedback)
		}
		if p.AllowResubmit != tt.resubmit {
			t.Errorf("%s: AllowResubmit = %v, want %v", tt.mode, p.AllowResubmit, tt.resubmit)
		}
		if p.AllowReset != tt.reset {
			t.Errorf("%s: AllowReset = %v, want %v", tt.mode, p.AllowReset, tt.reset)
		}
	}
}
