package session

import "time"

// Mode is the behavioral contract for a practice session.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeFast     Mode = "fast"
	ModeTest     Mode = "test"
	ModeStudy    Mode = "study"
)

// AdvanceRule decides what happens to the current index after a submission.
type AdvanceRule int

const (
	AdvanceStay      AdvanceRule = iota // stay on the question
	AdvanceDelayed                      // advance after FastAdvanceDelay
	AdvanceImmediate                    // advance right away
)

// FeedbackRule decides when the correct/incorrect indicator is shown.
type FeedbackRule int

const (
	FeedbackAfterSubmit FeedbackRule = iota // shown once the outcome is recorded
	FeedbackDeferred                        // withheld until session completion
	FeedbackImmediate                       // shown before any answering (study)
)

// FastAdvanceDelay is how long fast mode lingers on a correct answer
// before moving on.
const FastAdvanceDelay = 700 * time.Millisecond

// Policy is the closed set of per-mode rules, selected once at session
// start. The controller branches on these fields, never on the mode name.
type Policy struct {
	Mode        Mode
	Interactive bool // false: no answering, correctness is self-reported
	OnCorrect   AdvanceRule
	OnIncorrect AdvanceRule
	Feedback    FeedbackRule

	// AllowResubmit permits re-answering an entry with a recorded outcome.
	// Test mode allows it because prior outcomes are hidden until the end;
	// study mode allows it so a self-report can be corrected in place.
	AllowResubmit bool

	// AllowReset exposes the explicit reset action. Unavailable in test
	// mode, where outcomes are not visible to clear.
	AllowReset bool
}

// PolicyFor returns the policy for mode. Unknown modes fall back to
// practice, the most conservative interactive behavior.
func PolicyFor(mode Mode) Policy {
	switch mode {
	case ModeFast:
		return Policy{
			Mode:        ModeFast,
			Interactive: true,
			OnCorrect:   AdvanceDelayed,
			OnIncorrect: AdvanceStay,
			Feedback:    FeedbackAfterSubmit,
			AllowReset:  true,
		}
	case ModeTest:
		return Policy{
			Mode:          ModeTest,
			Interactive:   true,
			OnCorrect:     AdvanceImmediate,
			OnIncorrect:   AdvanceImmediate,
			Feedback:      FeedbackDeferred,
			AllowResubmit: true,
		}
	case ModeStudy:
		return Policy{
			Mode:     ModeStudy,
			Feedback: FeedbackImmediate,
			// Self-reports may be corrected while the question is on screen.
			AllowResubmit: true,
		}
	default:
		return Policy{
			Mode:        ModePractice,
			Interactive: true,
			OnCorrect:   AdvanceStay,
			OnIncorrect: AdvanceStay,
			Feedback:    FeedbackAfterSubmit,
			AllowReset:  true,
		}
	}
}
