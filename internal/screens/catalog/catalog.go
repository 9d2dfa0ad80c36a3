package catalog

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	cat "github.com/hahahahacnm/medbank/internal/catalog"
	"github.com/hahahahacnm/medbank/internal/question"
	"github.com/hahahahacnm/medbank/internal/router"
	"github.com/hahahahacnm/medbank/internal/screen"
	"github.com/hahahahacnm/medbank/internal/screens/practice"
	sess "github.com/hahahahacnm/medbank/internal/session"
	"github.com/hahahahacnm/medbank/internal/store"
	"github.com/hahahahacnm/medbank/internal/ui/components"
	"github.com/hahahahacnm/medbank/internal/ui/layout"
	"github.com/hahahahacnm/medbank/internal/ui/theme"
)

// Deps carries everything a catalog-launched session needs.
type Deps struct {
	Fetcher  cat.Fetcher
	Source   question.Source
	Grader   question.Grader
	Progress store.ProgressRepo

	Bank  string
	Banks []string
}

// treeChangedMsg reports a completed tree mutation (root load, expansion,
// bank switch).
type treeChangedMsg struct {
	Err error
}

// CatalogScreen browses the lazily expanding chapter tree and launches
// sessions from leaf chapters.
type CatalogScreen struct {
	deps Deps
	tree *cat.Tree

	cursor int
	loaded bool
	errMsg string

	// picking overlays the mode menu for the selected leaf.
	picking  bool
	pickMenu components.Menu
	picked   *cat.Node
}

var _ screen.Screen = (*CatalogScreen)(nil)
var _ screen.KeyHintProvider = (*CatalogScreen)(nil)

// New creates a CatalogScreen for the given bank.
func New(deps Deps) *CatalogScreen {
	return &CatalogScreen{
		deps: deps,
		tree: cat.New(deps.Fetcher, deps.Progress, deps.Bank),
	}
}

func (c *CatalogScreen) Init() tea.Cmd {
	return func() tea.Msg {
		return treeChangedMsg{Err: c.tree.LoadRoot(context.Background())}
	}
}

func (c *CatalogScreen) Title() string {
	return "Catalog"
}

func (c *CatalogScreen) KeyHints() []layout.KeyHint {
	if c.picking {
		return []layout.KeyHint{
			{Key: "↑/↓", Description: "Mode"},
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑/↓", Description: "Move"},
		{Key: "Enter", Description: "Start"},
		{Key: "Space", Description: "Expand"},
	}
	if len(c.deps.Banks) > 1 {
		hints = append(hints, layout.KeyHint{Key: "B", Description: "Switch bank"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	return hints
}

func (c *CatalogScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case treeChangedMsg:
		c.loaded = true
		if msg.Err != nil {
			// A failed expansion is non-fatal: the node stays collapsed
			// and the rest of the tree keeps working.
			c.errMsg = msg.Err.Error()
		} else {
			c.errMsg = ""
		}
		c.clampCursor()
		return c, nil

	case tea.KeyMsg:
		return c.handleKey(msg)
	}
	return c, nil
}

func (c *CatalogScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if c.picking {
		switch key {
		case "esc":
			c.picking = false
			return c, nil
		}
		var cmd tea.Cmd
		c.pickMenu, cmd = c.pickMenu.Update(msg)
		return c, cmd
	}

	visible := c.tree.Visible()

	switch key {
	case "esc":
		return c, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(visible)-1 {
			c.cursor++
		}
	case "g":
		c.tree.RefreshDone(context.Background())
	case "b":
		return c, c.switchBank()
	case "enter":
		// Selection starts a session for any node; a branch session covers
		// the branch's whole subtree. Selecting a collapsed branch expands
		// it on the way.
		if c.cursor >= len(visible) {
			return c, nil
		}
		node := visible[c.cursor]
		c.openPicker(node)
		if !node.Leaf && !c.tree.IsExpanded(node.ID) {
			id := node.ID
			return c, func() tea.Msg {
				return treeChangedMsg{Err: c.tree.Toggle(context.Background(), id)}
			}
		}
		return c, nil
	case " ", "space", "right", "l":
		if c.cursor >= len(visible) {
			return c, nil
		}
		node := visible[c.cursor]
		if node.Leaf {
			c.openPicker(node)
			return c, nil
		}
		id := node.ID
		return c, func() tea.Msg {
			return treeChangedMsg{Err: c.tree.Toggle(context.Background(), id)}
		}
	case "left", "h":
		if c.cursor < len(visible) {
			node := visible[c.cursor]
			if !node.Leaf && c.tree.IsExpanded(node.ID) {
				id := node.ID
				return c, func() tea.Msg {
					return treeChangedMsg{Err: c.tree.Toggle(context.Background(), id)}
				}
			}
		}
	}
	return c, nil
}

func (c *CatalogScreen) clampCursor() {
	n := len(c.tree.Visible())
	if n == 0 {
		c.cursor = 0
	} else if c.cursor >= n {
		c.cursor = n - 1
	}
}

// switchBank cycles to the next configured bank. The tree is rebuilt from
// scratch; cached expansions do not survive a bank switch.
func (c *CatalogScreen) switchBank() tea.Cmd {
	if len(c.deps.Banks) < 2 {
		return nil
	}
	next := c.deps.Banks[0]
	for i, b := range c.deps.Banks {
		if b == c.tree.Source() {
			next = c.deps.Banks[(i+1)%len(c.deps.Banks)]
			break
		}
	}
	c.deps.Bank = next
	c.cursor = 0
	return tea.Batch(
		func() tea.Msg {
			return treeChangedMsg{Err: c.tree.SetSource(context.Background(), next)}
		},
		func() tea.Msg {
			return screen.BankChangedMsg{Bank: next}
		},
	)
}

func (c *CatalogScreen) openPicker(node *cat.Node) {
	c.picked = node
	c.picking = true
	modes := []struct {
		label string
		mode  sess.Mode
	}{
		{"Practice — answer at your own pace", sess.ModePractice},
		{"Fast — correct answers advance for you", sess.ModeFast},
		{"Test — feedback held until the end", sess.ModeTest},
		{"Study — read questions with answers shown", sess.ModeStudy},
	}
	items := make([]components.MenuItem, 0, len(modes))
	for _, m := range modes {
		mode := m.mode
		items = append(items, components.MenuItem{
			Label: m.label,
			Action: func() tea.Cmd {
				return c.startSession(mode)
			},
		})
	}
	c.pickMenu = components.NewMenu(items)
}

func (c *CatalogScreen) startSession(mode sess.Mode) tea.Cmd {
	if c.picked == nil {
		return nil
	}
	cfg := sess.Config{
		Source:   c.deps.Source,
		Grader:   c.deps.Grader,
		Progress: c.deps.Progress,
		Mode:     mode,
		Domain:   sess.DomainChapter,
		Bank:     c.tree.Source(),
		Category: c.picked.Path,
	}
	c.picking = false
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: practice.New(cfg, nil)}
	}
}

func (c *CatalogScreen) View(width, height int) string {
	if !c.loaded {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\nLoading catalog...")
	}

	if c.picking && c.picked != nil {
		return c.renderPicker(width)
	}

	var b strings.Builder
	visible := c.tree.Visible()
	if len(visible) == 0 {
		b.WriteString(lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(theme.TextDim).
			Render("This bank has no chapters."))
	}

	maxRows := height - 4
	start := 0
	if maxRows > 0 && c.cursor >= maxRows {
		start = c.cursor - maxRows + 1
	}

	for i := start; i < len(visible); i++ {
		if maxRows > 0 && i-start >= maxRows {
			break
		}
		b.WriteString(c.renderNode(visible[i], i == c.cursor))
		b.WriteString("\n")
	}

	if c.cursor < len(visible) {
		b.WriteString("\n")
		done, total := c.tree.Progress(visible[c.cursor].ID)
		bar := components.NewProgressBar("", done, total, min(width-20, 40))
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(bar.View()))
		b.WriteString("\n")
	}

	if c.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
			theme.Incorrect.Render("! " + c.errMsg)))
	}
	return b.String()
}

func (c *CatalogScreen) renderNode(n *cat.Node, selected bool) string {
	indent := strings.Repeat("  ", n.Level)

	var line string
	if n.Leaf {
		line = fmt.Sprintf("%s  %s  %s", indent, n.Name,
			lipgloss.NewStyle().Foreground(theme.TextDim).
				Render(fmt.Sprintf("(%d/%d)", n.Done, n.Count)))
	} else {
		arrow := "▸"
		if c.tree.IsExpanded(n.ID) {
			arrow = "▾"
		}
		done, total := c.tree.Progress(n.ID)
		line = fmt.Sprintf("%s%s %s  %s", indent, arrow, n.Name,
			lipgloss.NewStyle().Foreground(theme.TextDim).
				Render(fmt.Sprintf("%d/%d", done, total)))
	}

	style := lipgloss.NewStyle().Foreground(theme.Text).PaddingLeft(2)
	if selected {
		style = style.Foreground(theme.Primary).Bold(true)
	}
	return style.Render(line)
}

func (c *CatalogScreen) renderPicker(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Secondary).
		Bold(true).
		Render("\n" + c.picked.Name))
	b.WriteString("\n")
	count := c.picked.Count
	if !c.picked.Leaf {
		_, count = c.tree.Progress(c.picked.ID)
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d questions", count)))
	b.WriteString("\n\n")

	menu := lipgloss.PlaceHorizontal(width, lipgloss.Center, c.pickMenu.View())
	b.WriteString(menu)
	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
