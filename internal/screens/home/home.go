package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/mistake"
	"github.com/hahahahacnm/medbank/internal/question"
	"github.com/hahahahacnm/medbank/internal/router"
	"github.com/hahahahacnm/medbank/internal/screen"
	catalogscreen "github.com/hahahahacnm/medbank/internal/screens/catalog"
	"github.com/hahahahacnm/medbank/internal/screens/practice"
	"github.com/hahahahacnm/medbank/internal/screens/settings"
	sess "github.com/hahahahacnm/medbank/internal/session"
	"github.com/hahahahacnm/medbank/internal/store"
	"github.com/hahahahacnm/medbank/internal/ui/components"
	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

// Deps wires the home menu. Online is nil when no API endpoint is
// configured; Offline is nil when no preloaded bundle is available.
type Deps struct {
	Online  *catalogscreen.Deps
	Offline *catalogscreen.Deps

	Remover  mistake.Remover
	Progress store.ProgressRepo
	Prefs    store.PrefsRepo
}

// HomeScreen is the application entry menu.
type HomeScreen struct {
	deps Deps
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}

	items := []components.MenuItem{
		{
			Label:    "BROWSE CATALOG",
			Disabled: deps.Online == nil,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: catalogscreen.New(*deps.Online)}
				}
			},
		},
		{
			Label:    "MISTAKE BOOK",
			Disabled: deps.Online == nil || deps.Remover == nil,
			Action:   h.openMistakeBook,
		},
		{
			Label:    "OFFLINE PRACTICE",
			Disabled: deps.Offline == nil,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: catalogscreen.New(*deps.Offline)}
				}
			},
		},
		{
			Label: "SETTINGS",
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: settings.New(deps.Prefs)}
				}
			},
		},
		{
			Label: "QUIT",
			Action: func() tea.Cmd {
				return tea.Quit
			},
		},
	}

	h.menu = components.NewMenu(items)
	return h
}

// openMistakeBook starts a practice-mode session over the mistake book for
// the active bank.
func (h *HomeScreen) openMistakeBook() tea.Cmd {
	ctx := context.Background()
	deps := h.deps

	bank := deps.Online.Bank
	if deps.Prefs != nil {
		if b, err := deps.Prefs.Get(ctx, store.PrefLastBank); err == nil && b != "" {
			bank = b
		}
	}

	cfg := sess.Config{
		Source:              deps.Online.Source,
		Grader:              deps.Online.Grader,
		Progress:            deps.Progress,
		Mode:                sess.ModePractice,
		Domain:              sess.DomainMistakes,
		Bank:                bank,
		Category:            question.MistakeCategory,
		AutoRemoveOnCorrect: store.BoolPref(ctx, deps.Prefs, store.PrefAutoRemoveOnCorrect, false),
	}
	mgr := mistake.NewManager(deps.Online.Source, deps.Remover, question.MistakeCategory, bank)

	return func() tea.Msg {
		return router.PushScreenMsg{Screen: practice.New(cfg, mgr)}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render("M E D B A N K"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("question bank practice for clinical exams"))
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View()))

	if h.deps.Online == nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Italic(true).
			Render("no API endpoint configured — online features disabled"))
	}
	return b.String()
}
