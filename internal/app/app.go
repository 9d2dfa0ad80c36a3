package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hahahahacnm/medbank/internal/api"
	"github.com/hahahahacnm/medbank/internal/question"
	"github.com/hahahahacnm/medbank/internal/router"
	"github.com/hahahahacnm/medbank/internal/screen"
	catalogscreen "github.com/hahahahacnm/medbank/internal/screens/catalog"
	"github.com/hahahahacnm/medbank/internal/screens/home"
	"github.com/hahahahacnm/medbank/internal/store"
	"github.com/hahahahacnm/medbank/internal/ui/layout"
)

// Options configures the TUI. APIBase may be empty, in which case only
// offline practice is available.
type Options struct {
	APIBase string
	Token   string
	Bank    string
	Banks   []string

	Store *store.Store
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	prefs  store.PrefsRepo
	bank   string
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	progress := opts.Store.ProgressRepo()
	prefs := opts.Store.PrefsRepo()

	deps := home.Deps{
		Progress: progress,
		Prefs:    prefs,
	}

	bank := opts.Bank
	if bank == "" {
		// Fall back to the last bank used.
		if b, err := prefs.Get(context.Background(), store.PrefLastBank); err == nil && b != "" {
			bank = b
		}
	}

	if opts.APIBase != "" {
		client := api.New(api.Config{BaseURL: opts.APIBase, Token: opts.Token})
		deps.Online = &catalogscreen.Deps{
			Fetcher:  client,
			Source:   client,
			Grader:   client,
			Progress: progress,
			Bank:     bank,
			Banks:    opts.Banks,
		}
		deps.Remover = client
	}

	if bundle, err := question.SampleBundle(); err == nil {
		pre := question.NewPreloaded(bundle)
		deps.Offline = &catalogscreen.Deps{
			Fetcher:  NewBundleFetcher(bundle),
			Source:   pre,
			Grader:   pre,
			Progress: progress,
			Bank:     bundle.Source,
		}
	}

	return AppModel{
		router: router.New(home.New(deps)),
		prefs:  prefs,
		bank:   bank,
	}
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.BankChangedMsg:
		m.bank = msg.Bank
		if m.prefs != nil {
			_ = m.prefs.Set(context.Background(), store.PrefLastBank, msg.Bank)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.bank, m.width)

	var footerHints []layout.KeyHint
	if provider, ok := active.(screen.KeyHintProvider); ok {
		footerHints = provider.KeyHints()
	}
	if footerHints == nil {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
		}
	}
	footerHints = append(footerHints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
