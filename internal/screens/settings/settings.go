package settings

import (
	"context"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/router"
	"github.com/hahahahacnm/medbank/internal/screen"
	"github.com/hahahahacnm/medbank/internal/store"
	"github.com/hahahahacnm/medbank/internal/ui/layout"
	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

// SettingsScreen edits persisted preferences.
type SettingsScreen struct {
	prefs store.PrefsRepo

	cursor     int
	autoRemove bool
	saveErr    string
}

var _ screen.Screen = (*SettingsScreen)(nil)
var _ screen.KeyHintProvider = (*SettingsScreen)(nil)

// New creates a SettingsScreen over the preference store.
func New(prefs store.PrefsRepo) *SettingsScreen {
	return &SettingsScreen{
		prefs:      prefs,
		autoRemove: store.BoolPref(context.Background(), prefs, store.PrefAutoRemoveOnCorrect, false),
	}
}

func (s *SettingsScreen) Init() tea.Cmd {
	return nil
}

func (s *SettingsScreen) Title() string {
	return "Settings"
}

func (s *SettingsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Toggle"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SettingsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "enter", " ", "space":
		s.autoRemove = !s.autoRemove
		s.saveErr = ""
		if err := s.prefs.Set(context.Background(),
			store.PrefAutoRemoveOnCorrect, strconv.FormatBool(s.autoRemove)); err != nil {
			s.saveErr = err.Error()
		}
	}
	return s, nil
}

func (s *SettingsScreen) View(width, height int) string {
	var b strings.Builder

	state := theme.Incorrect.Render("off")
	if s.autoRemove {
		state = theme.Correct.Render("on")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
		theme.Selected.Render("▸ Auto-remove corrected mistakes") + "   " + state))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(4).
		Foreground(theme.TextDim).
		Width(width - 8).
		Render("When on, answering a mistake-book question correctly removes it from the book after a short delay. A reset within the delay keeps it."))
	b.WriteString("\n")

	if s.saveErr != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
			theme.Incorrect.Render("! could not save: " + s.saveErr)))
	}
	return b.String()
}
