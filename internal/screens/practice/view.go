package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/question"
	sess "github.com/hahahahacnm/medbank/internal/session"
	"github.com/hahahahacnm/medbank/internal/ui/components"
	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

func (p *PracticeScreen) View(width, height int) string {
	switch {
	case p.errMsg != "":
		return renderCentered(width, theme.Incorrect.Render("Error: "+p.errMsg)+
			"\n\n"+theme.Hint.Render("Press any key to continue"))
	case !p.loaded:
		return renderCentered(width, theme.Hint.Render("Loading question list..."))
	case p.ctrl.Len() == 0:
		return renderCentered(width, theme.Hint.Render("Nothing here. Press Esc to go back."))
	case p.showSheet:
		return p.renderSheet(width)
	case p.ctrl.Current() == nil:
		return renderCentered(width, theme.Hint.Render("Loading question..."))
	}
	return p.renderQuestion(width)
}

func renderCentered(width int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render("\n\n" + content)
}

func (p *PracticeScreen) renderQuestion(width int) string {
	d := p.ctrl.Current()
	e := p.ctrl.CurrentEntry()

	var b strings.Builder
	b.WriteString(p.renderInfoLine(width, e))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	stem := lipgloss.NewStyle().
		Width(width - 4).
		PaddingLeft(2).
		Foreground(theme.Text).
		Bold(true).
		Render(d.Stem)
	b.WriteString(stem)
	b.WriteString("\n\n")

	switch d.Kind {
	case question.KindGroup:
		b.WriteString(p.renderGroup(width, d))
	case question.KindSubjective:
		b.WriteString(p.renderSubjective(width, d, e))
	default:
		b.WriteString(p.renderChoice(width, d, e))
	}

	// Study mode shows the answer up front and asks the learner to report
	// whether they knew it.
	if !p.ctrl.Policy().Interactive && e.Status == question.StatusUnfilled {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(theme.TextDim).
			Render("Did you know it?  " +
				theme.Correct.Render("[Y] yes") + "   " + theme.Incorrect.Render("[W] no")))
	}
	return b.String()
}

func (p *PracticeScreen) renderInfoLine(width int, e *question.SkeletonEntry) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Question %d / %d", e.Index, p.ctrl.Len()))

	var tags []string
	tags = append(tags, string(p.ctrl.Policy().Mode))
	if p.ctrl.FeedbackVisible() {
		switch e.Status {
		case question.StatusCorrect:
			tags = append(tags, theme.Correct.Render("✓ correct"))
		case question.StatusWrong:
			tags = append(tags, theme.Incorrect.Render("✗ wrong"))
		}
	} else if e.Status != question.StatusUnfilled {
		tags = append(tags, theme.Selected.Render("answered"))
	}
	if e.WrongCount != nil {
		tags = append(tags, lipgloss.NewStyle().Foreground(theme.Accent).
			Render(fmt.Sprintf("missed ×%d", *e.WrongCount)))
	}
	right := lipgloss.NewStyle().Foreground(theme.TextDim).Render(strings.Join(tags, "  "))

	pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func (p *PracticeScreen) renderChoice(width int, d *question.Detail, e *question.SkeletonEntry) string {
	study := !p.ctrl.Policy().Interactive
	submitted := e.Status != question.StatusUnfilled
	reveal := (submitted || study) && p.ctrl.FeedbackVisible()
	list := components.OptionList{
		Options:       d.Options,
		Cursor:        p.cursor,
		Pending:       pendingSet(p.ctrl.PendingAnswer()),
		Submitted:     submitted || study,
		ShowOutcome:   reveal,
		CorrectAnswer: question.NormalizeChoice(d.Answer),
		GivenAnswer:   question.NormalizeChoice(p.given[d.ID]),
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(list.View()))

	if reveal {
		b.WriteString("\n")
		b.WriteString(p.renderAnalysis(width, d))
	}
	return b.String()
}

func (p *PracticeScreen) renderSubjective(width int, d *question.Detail, e *question.SkeletonEntry) string {
	study := !p.ctrl.Policy().Interactive

	var b strings.Builder
	if !study && !p.revealed && e.Status == question.StatusUnfilled {
		b.WriteString(lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(theme.TextDim).
			Render("Think it through, then press Enter to compare with the reference answer."))
		return b.String()
	}

	b.WriteString(p.renderAnalysis(width, d))
	if !study && e.Status == question.StatusUnfilled {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(theme.TextDim).
			Render("Did you get it?  " +
				theme.Correct.Render("[Y] yes") + "   " + theme.Incorrect.Render("[W] no")))
	}
	return b.String()
}

func (p *PracticeScreen) renderGroup(width int, d *question.Detail) string {
	var b strings.Builder
	for i := range d.Children {
		child := &d.Children[i]
		active := i == p.childCursor

		marker := "  "
		if active {
			marker = "▸ "
		}
		header := fmt.Sprintf("%s(%d) %s", marker, i+1, child.Stem)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if active {
			style = style.Bold(true)
		}
		switch p.ctrl.ChildStatus(child.ID) {
		case question.StatusCorrect:
			if p.ctrl.FeedbackVisible() {
				header += "  " + theme.Correct.Render("✓")
			}
		case question.StatusWrong:
			if p.ctrl.FeedbackVisible() {
				header += "  " + theme.Incorrect.Render("✗")
			}
		}
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(style.Render(header)))
		b.WriteString("\n")

		if active {
			study := !p.ctrl.Policy().Interactive
			submitted := p.ctrl.ChildStatus(child.ID) != question.StatusUnfilled
			reveal := (submitted || study) && p.ctrl.FeedbackVisible()
			list := components.OptionList{
				Options:       child.Options,
				Cursor:        p.cursor,
				Pending:       p.childPending,
				Submitted:     submitted || study,
				ShowOutcome:   reveal,
				CorrectAnswer: question.NormalizeChoice(child.Answer),
				GivenAnswer:   question.NormalizeChoice(p.given[child.ID]),
			}
			b.WriteString(lipgloss.NewStyle().PaddingLeft(4).Render(list.View()))
			if reveal && child.Analysis != "" {
				b.WriteString(p.renderAnalysis(width, child))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p *PracticeScreen) renderAnalysis(width int, d *question.Detail) string {
	var parts []string
	if d.Answer != "" {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("Answer: ")+
				lipgloss.NewStyle().Foreground(theme.Text).Render(d.Answer))
	}
	if d.Analysis != "" {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("Analysis")+
				"\n"+lipgloss.NewStyle().Foreground(theme.Text).Render(d.Analysis))
	}
	if len(parts) == 0 {
		return ""
	}

	box := theme.Card.Width(max(width-8, 20)).Render(strings.Join(parts, "\n\n"))
	return lipgloss.NewStyle().PaddingLeft(2).Render(box) + "\n"
}

// renderSheet draws the answer-sheet overlay: one cell per entry, colored
// by outcome where the mode allows feedback, plus the jump input.
func (p *PracticeScreen) renderSheet(width int) string {
	const perRow = 10

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(theme.Secondary).
		Bold(true).
		Render("Answer Sheet"))
	b.WriteString("\n")

	sum := p.ctrl.ListSummary()
	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("attempted %d   accuracy %.0f%%", sum.AttemptedNum, sum.AccuracyRate*100)))
	b.WriteString("\n\n")

	feedback := p.ctrl.FeedbackVisible() || p.ctrl.Policy().Feedback != sess.FeedbackDeferred

	var row strings.Builder
	for i, e := range p.ctrl.Entries() {
		cell := fmt.Sprintf("%3d", e.Index)
		switch {
		case i == p.ctrl.Index():
			cell = theme.Selected.Render(cell)
		case e.Status == question.StatusUnfilled:
			cell = lipgloss.NewStyle().Foreground(theme.TextDim).Render(cell)
		case !feedback:
			cell = lipgloss.NewStyle().Foreground(theme.Accent).Render(cell)
		case e.Status == question.StatusCorrect:
			cell = theme.Correct.Render(cell)
		default:
			cell = theme.Incorrect.Render(cell)
		}
		row.WriteString(cell + " ")
		if (i+1)%perRow == 0 {
			b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(row.String()))
			b.WriteString("\n")
			row.Reset()
		}
	}
	if row.Len() > 0 {
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(row.String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render("Jump to: " + p.sheetInput.View()))
	return b.String()
}

func pendingSet(answer string) map[string]bool {
	set := make(map[string]bool, len(answer))
	for _, r := range answer {
		set[string(r)] = true
	}
	return set
}
