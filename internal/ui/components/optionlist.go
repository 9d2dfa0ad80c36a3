package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/question"
	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

// OptionList renders an answer option set with cursor, pending multi-choice
// selection, and outcome coloring. It is a pure view over state the session
// screen owns; key handling stays in the screen so the mode policy is
// applied in one place.
type OptionList struct {
	Options []question.Option

	// Cursor is the highlighted row.
	Cursor int

	// Pending marks multi-choice selections awaiting confirmation.
	Pending map[string]bool

	// Submitted switches from selection styling to outcome styling.
	Submitted bool

	// ShowOutcome gates the correct/incorrect coloring after submission;
	// false in test mode, where feedback is withheld until completion.
	ShowOutcome bool

	// CorrectAnswer and GivenAnswer are normalized label sets, used for
	// outcome coloring once submitted.
	CorrectAnswer string
	GivenAnswer   string
}

// View renders the option list.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		marker := "  "
		if o.Pending[opt.Label] {
			marker = "◉ "
		}
		prefix := "  "
		if i == o.Cursor && !o.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s%s)  %s", prefix, marker, opt.Label, opt.Text)

		switch {
		case o.Submitted && o.ShowOutcome && strings.Contains(o.CorrectAnswer, opt.Label):
			b.WriteString(theme.Correct.Render(line))
		case o.Submitted && o.ShowOutcome && strings.Contains(o.GivenAnswer, opt.Label):
			b.WriteString(theme.Incorrect.Render(line))
		case o.Submitted:
			if strings.Contains(o.GivenAnswer, opt.Label) {
				b.WriteString(theme.Selected.Render(line))
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(line))
			}
		case i == o.Cursor:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
