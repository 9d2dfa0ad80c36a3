package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/router"
	"github.com/hahahahacnm/medbank/internal/screen"
	"github.com/hahahahacnm/medbank/internal/session"
	"github.com/hahahahacnm/medbank/internal/ui/layout"
	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

// SummaryScreen displays the end-of-session summary.
type SummaryScreen struct {
	summary *session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Back"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render("Session complete!"))
	b.WriteString("\n\n")

	sub := string(sum.Mode)
	if sum.Domain == session.DomainMistakes {
		sub += " · mistake book"
	}
	if sum.Category != "" {
		sub += " · " + sum.Category
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(sub))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("Questions: %d        Answered: %d        Accuracy: %.0f%%",
		sum.Total, sum.Answered, sum.Accuracy*100)
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(statsLine))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 60)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	correct := theme.Correct.Render(fmt.Sprintf("✓ %d correct", sum.Correct))
	wrong := theme.Incorrect.Render(fmt.Sprintf("✗ %d wrong", sum.Wrong))
	skipped := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("· %d unanswered", sum.Total-sum.Answered))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		correct+"        "+wrong+"        "+skipped))
	b.WriteString("\n")

	if sum.Answered > 0 && sum.Wrong == 0 && statusWorthCelebrating(sum) {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("Flawless run!")))
		b.WriteString("\n")
	}

	if sum.SessionID != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.TextDim).
				Render("session "+shortID(sum.SessionID))))
		b.WriteString("\n")
	}

	return b.String()
}

// shortID trims a uuid to its first group for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func statusWorthCelebrating(sum *session.Summary) bool {
	// A perfect score only counts when the whole list was attempted.
	return sum.Answered == sum.Total && sum.Total > 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
