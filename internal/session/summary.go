package session

import "github.com/hahahahacnm/medbank/internal/question"

// Summary is the terminal aggregate emitted when a session completes.
// It is derived state, never persisted.
type Summary struct {
	SessionID string
	Mode      Mode
	Domain    Domain
	Category  string
	Total     int
	Answered  int
	Correct   int
	Wrong     int
	Accuracy  float64 // Correct / Answered, 0 when nothing answered
}

// BuildSummary computes the session summary from the skeleton statuses.
func BuildSummary(c *Controller) *Summary {
	s := &Summary{
		SessionID: c.ID(),
		Mode:      c.policy.Mode,
		Domain:    c.cfg.Domain,
		Category:  c.cfg.Category,
		Total:     len(c.entries),
	}
	for i := range c.entries {
		switch c.entries[i].Status {
		case question.StatusCorrect:
			s.Answered++
			s.Correct++
		case question.StatusWrong:
			s.Answered++
			s.Wrong++
		}
	}
	if s.Answered > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Answered)
	}
	return s
}
