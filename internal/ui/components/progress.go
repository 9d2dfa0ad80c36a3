package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

// ProgressBar displays a horizontal done/total progress bar.
type ProgressBar struct {
	Label string
	Done  int
	Total int
	Width int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, done, total, width int) ProgressBar {
	return ProgressBar{Label: label, Done: done, Total: total, Width: width}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	width := p.Width
	if width < 4 {
		width = 4
	}

	var percent float64
	if p.Total > 0 {
		percent = float64(p.Done) / float64(p.Total)
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(width))

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", width-filled))

	result += lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %d/%d", p.Done, p.Total))

	return result
}
