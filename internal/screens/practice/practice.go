package practice

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hahahahacnm/medbank/internal/mistake"
	"github.com/hahahahacnm/medbank/internal/question"
	"github.com/hahahahacnm/medbank/internal/router"
	"github.com/hahahahacnm/medbank/internal/screen"
	"github.com/hahahahacnm/medbank/internal/screens/summary"
	sess "github.com/hahahahacnm/medbank/internal/session"
	"github.com/hahahahacnm/medbank/internal/ui/components"
	"github.com/hahahahacnm/medbank/internal/ui/layout"
)

// PracticeScreen drives one session over a skeleton list: lazy detail
// loading, answering, feedback, and navigation, with all mode behavior
// delegated to the controller's policy.
type PracticeScreen struct {
	ctrl     *sess.Controller
	source   question.Source
	grader   question.Grader
	mistakes *mistake.Manager

	cursor      int
	childCursor int

	// childPending is the accumulating selection for the active group
	// child; top-level selection lives in the controller.
	childPending map[string]bool

	// given remembers the submitted answer per question ID so outcome
	// coloring can mark the learner's choice after the pending set clears.
	given map[string]string

	showSheet  bool
	sheetInput components.TextInput

	// revealed marks a subjective question whose reference answer has been
	// shown, enabling the self-report keys.
	revealed bool

	loaded  bool
	loading bool
	errMsg  string
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)

// New creates a PracticeScreen. mistakes may be nil outside the mistake
// domain.
func New(cfg sess.Config, mistakes *mistake.Manager) *PracticeScreen {
	return &PracticeScreen{
		ctrl:         sess.New(cfg),
		source:       cfg.Source,
		grader:       cfg.Grader,
		mistakes:     mistakes,
		childPending: make(map[string]bool),
		given:        make(map[string]string),
	}
}

func (p *PracticeScreen) Init() tea.Cmd {
	return func() tea.Msg {
		return skeletonLoadedMsg{Err: p.ctrl.Start(context.Background())}
	}
}

func (p *PracticeScreen) Title() string {
	switch {
	case p.ctrl.Domain() == sess.DomainMistakes:
		return "Mistake Book"
	case p.ctrl.Policy().Mode == sess.ModeStudy:
		return "Study"
	case p.ctrl.Policy().Mode == sess.ModeTest:
		return "Test"
	default:
		return "Practice"
	}
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case skeletonLoadedMsg:
		if msg.Err != nil {
			p.errMsg = msg.Err.Error()
			return p, nil
		}
		p.loaded = true
		return p, p.loadDetail()

	case detailLoadedMsg:
		return p.handleDetailLoaded(msg)

	case submitResultMsg:
		return p.handleSubmitResult(msg)

	case resetDoneMsg:
		return p.handleResetDone(msg)

	case wrongCountMsg:
		if msg.Err == nil {
			p.ctrl.ApplyWrongCount(msg.QuestionID, msg.Count)
		}
		return p, nil

	case removeDoneMsg:
		return p.handleRemoveDone(msg)

	case autoAdvanceMsg:
		if msg.Index != p.ctrl.Index() {
			return p, nil
		}
		return p.advance()

	case autoRemoveTickMsg:
		return p.handleAutoRemoveTick(msg)

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	if p.showSheet {
		var cmd tea.Cmd
		p.sheetInput, cmd = p.sheetInput.Update(msg)
		return p, cmd
	}
	return p, nil
}

// loadDetail issues the detail fetch for the current entry, tagged with the
// navigation sequence so a late response for an abandoned position is
// dropped on arrival.
func (p *PracticeScreen) loadDetail() tea.Cmd {
	id, seq, ok := p.ctrl.DetailRequest()
	if !ok {
		return nil
	}
	p.loading = true
	src := p.source
	return func() tea.Msg {
		d, err := src.ResolveDetail(context.Background(), id)
		return detailLoadedMsg{Seq: seq, Detail: d, Err: err}
	}
}

func (p *PracticeScreen) handleDetailLoaded(msg detailLoadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Seq != p.ctrl.Seq() {
		return p, nil // stale: the user navigated while this was in flight
	}
	p.loading = false
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	p.ctrl.ApplyDetail(msg.Seq, msg.Detail)
	p.cursor = 0
	p.childCursor = 0
	p.childPending = make(map[string]bool)
	p.revealed = false
	return p, nil
}

func (p *PracticeScreen) handleSubmitResult(msg submitResultMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}

	ctx := context.Background()
	var applied bool
	var err error
	if msg.ChildID != "" {
		p.given[msg.ChildID] = msg.Answer
		applied, err = p.ctrl.ApplyChildSubmit(ctx, msg.Index, msg.ChildID, msg.Res)
	} else {
		if e := p.ctrl.CurrentEntry(); e != nil {
			p.given[e.ID] = msg.Answer
		}
		applied, err = p.ctrl.ApplySubmit(ctx, msg.Index, msg.Res)
	}
	if err != nil && !errors.Is(err, sess.ErrAlreadyGraded) {
		// A failed history write must not pass for a recorded outcome.
		p.errMsg = err.Error()
	}
	if !applied {
		return p, nil
	}

	var cmds []tea.Cmd

	// Mistake-domain bookkeeping: a wrong answer refreshes the recurrence
	// count, a correct one may schedule auto-removal.
	if e := p.ctrl.CurrentEntry(); e != nil && p.mistakes != nil && msg.ChildID == "" {
		qid := e.ID
		if !msg.Res.Correct {
			m := p.mistakes
			cmds = append(cmds, func() tea.Msg {
				n, err := m.RefreshWrongCount(ctx, qid)
				return wrongCountMsg{QuestionID: qid, Count: n, Err: err}
			})
		} else if p.ctrl.AutoRemoveOnCorrect() {
			cmds = append(cmds, tea.Tick(mistake.AutoRemoveDelay, func(time.Time) tea.Msg {
				return autoRemoveTickMsg{QuestionID: qid}
			}))
		}
	}

	// Group children advance the parent only once all are answered, which
	// ApplySubmit reflects through the entry status.
	if e := p.ctrl.CurrentEntry(); e != nil && e.Status != question.StatusUnfilled {
		rule := p.ctrl.Policy().OnIncorrect
		if e.Status == question.StatusCorrect {
			rule = p.ctrl.Policy().OnCorrect
		}
		switch rule {
		case sess.AdvanceImmediate:
			s, cmd := p.advance()
			return s, tea.Batch(append(cmds, cmd)...)
		case sess.AdvanceDelayed:
			idx := p.ctrl.Index()
			cmds = append(cmds, tea.Tick(sess.FastAdvanceDelay, func(time.Time) tea.Msg {
				return autoAdvanceMsg{Index: idx}
			}))
		}
	}
	return p, tea.Batch(cmds...)
}

func (p *PracticeScreen) handleResetDone(msg resetDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	if err := p.ctrl.ApplyReset(context.Background(), msg.Index); err != nil {
		p.errMsg = err.Error()
	}
	p.revealed = false
	return p, nil
}

func (p *PracticeScreen) handleRemoveDone(msg removeDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	p.ctrl.RemoveEntry(msg.QuestionID)
	if p.ctrl.Len() == 0 {
		return p.finish()
	}
	if p.ctrl.Current() == nil {
		return p, p.loadDetail()
	}
	return p, nil
}

func (p *PracticeScreen) handleAutoRemoveTick(msg autoRemoveTickMsg) (screen.Screen, tea.Cmd) {
	if p.mistakes == nil {
		return p, nil
	}
	// Only remove if the entry is still present and still correct; a reset
	// in the grace window cancels the removal.
	still := false
	for _, e := range p.ctrl.Entries() {
		if e.ID == msg.QuestionID && e.Status == question.StatusCorrect {
			still = true
			break
		}
	}
	if !still {
		return p, nil
	}
	m := p.mistakes
	qid := msg.QuestionID
	return p, func() tea.Msg {
		return removeDoneMsg{QuestionID: qid, Err: m.Remove(context.Background(), qid)}
	}
}

func (p *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if p.errMsg != "" {
		p.errMsg = ""
		if !p.loaded {
			return p, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return p, nil
	}
	if !p.loaded {
		return p, nil
	}

	if p.showSheet {
		return p.handleSheetKey(msg)
	}

	switch key {
	case "esc":
		return p.finish()
	case "s":
		p.showSheet = true
		p.sheetInput = components.NewTextInput("question number", true, 4)
		return p, p.sheetInput.Init()
	case "left", "h":
		p.ctrl.Prev(context.Background())
		return p, p.loadDetail()
	case "right", "l", "n":
		return p.advance()
	case "r":
		return p.resetCurrent()
	case "x":
		return p.removeCurrent()
	}

	d := p.ctrl.Current()
	if d == nil {
		return p, nil
	}

	if !p.ctrl.Policy().Interactive {
		// Study mode shows the answer up front; the learner reports whether
		// they had it.
		switch key {
		case "y":
			return p.selfReport(true)
		case "w":
			return p.selfReport(false)
		}
		return p, nil
	}

	if d.Kind == question.KindGroup {
		return p.handleGroupKey(key, d)
	}

	switch d.Kind {
	case question.KindSubjective:
		return p.handleSubjectiveKey(key)
	default:
		return p.handleChoiceKey(key, d)
	}
}

func (p *PracticeScreen) handleChoiceKey(key string, d *question.Detail) (screen.Screen, tea.Cmd) {
	switch key {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
		return p, nil
	case "down", "j":
		if p.cursor < len(d.Options)-1 {
			p.cursor++
		}
		return p, nil
	case "enter":
		if d.Kind == question.KindMulti {
			if p.ctrl.CanConfirm() {
				return p.submitPending()
			}
			return p, nil
		}
		return p.selectOption(p.cursor, d)
	case " ", "space":
		if d.Kind == question.KindMulti {
			return p.selectOption(p.cursor, d)
		}
		return p, nil
	}

	if i := optionIndexForKey(key, len(d.Options)); i >= 0 {
		p.cursor = i
		return p.selectOption(i, d)
	}
	return p, nil
}

func (p *PracticeScreen) selectOption(i int, d *question.Detail) (screen.Screen, tea.Cmd) {
	if i < 0 || i >= len(d.Options) {
		return p, nil
	}
	submitNow, err := p.ctrl.ToggleOption(d.Options[i].Label)
	if err != nil {
		return p, nil // already graded in a mode without resubmit
	}
	if submitNow {
		return p.submitPending()
	}
	return p, nil
}

func (p *PracticeScreen) submitPending() (screen.Screen, tea.Cmd) {
	e := p.ctrl.CurrentEntry()
	if e == nil {
		return p, nil
	}
	answer := p.ctrl.PendingAnswer()
	if answer == "" {
		return p, nil
	}
	idx := p.ctrl.Index()
	qid := e.ID
	g := p.grader
	return p, func() tea.Msg {
		res, err := g.Submit(context.Background(), qid, answer)
		return submitResultMsg{Index: idx, Answer: answer, Res: res, Err: err}
	}
}

func (p *PracticeScreen) handleSubjectiveKey(key string) (screen.Screen, tea.Cmd) {
	if !p.revealed {
		if key == "enter" {
			p.revealed = true
		}
		return p, nil
	}
	switch key {
	case "y":
		return p.selfReport(true)
	case "w":
		return p.selfReport(false)
	}
	return p, nil
}

func (p *PracticeScreen) selfReport(correct bool) (screen.Screen, tea.Cmd) {
	if err := p.ctrl.SelfReport(context.Background(), correct); err != nil {
		if !errors.Is(err, sess.ErrAlreadyGraded) {
			p.errMsg = err.Error()
		}
		return p, nil
	}
	rule := p.ctrl.Policy().OnIncorrect
	if correct {
		rule = p.ctrl.Policy().OnCorrect
	}
	switch rule {
	case sess.AdvanceImmediate:
		return p.advance()
	case sess.AdvanceDelayed:
		idx := p.ctrl.Index()
		return p, tea.Tick(sess.FastAdvanceDelay, func(time.Time) tea.Msg {
			return autoAdvanceMsg{Index: idx}
		})
	}
	return p, nil
}

func (p *PracticeScreen) handleGroupKey(key string, d *question.Detail) (screen.Screen, tea.Cmd) {
	if len(d.Children) == 0 {
		return p, nil
	}
	if p.childCursor >= len(d.Children) {
		p.childCursor = 0
	}
	child := &d.Children[p.childCursor]

	switch key {
	case "tab":
		p.childCursor = (p.childCursor + 1) % len(d.Children)
		p.cursor = 0
		p.childPending = make(map[string]bool)
		return p, nil
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
		return p, nil
	case "down", "j":
		if p.cursor < len(child.Options)-1 {
			p.cursor++
		}
		return p, nil
	case "enter":
		if child.Kind == question.KindMulti {
			if len(p.childPending) > 0 {
				return p.submitChild(child)
			}
			return p, nil
		}
		return p.toggleChildOption(p.cursor, child)
	case " ", "space":
		if child.Kind == question.KindMulti {
			return p.toggleChildOption(p.cursor, child)
		}
		return p, nil
	}

	if i := optionIndexForKey(key, len(child.Options)); i >= 0 {
		p.cursor = i
		return p.toggleChildOption(i, child)
	}
	return p, nil
}

func (p *PracticeScreen) toggleChildOption(i int, child *question.Detail) (screen.Screen, tea.Cmd) {
	if i < 0 || i >= len(child.Options) {
		return p, nil
	}
	if p.ctrl.ChildStatus(child.ID) != question.StatusUnfilled && !p.ctrl.Policy().AllowResubmit {
		return p, nil
	}
	label := child.Options[i].Label
	if child.Kind == question.KindMulti {
		if p.childPending[label] {
			delete(p.childPending, label)
		} else {
			p.childPending[label] = true
		}
		return p, nil
	}
	p.childPending = map[string]bool{label: true}
	return p.submitChild(child)
}

func (p *PracticeScreen) submitChild(child *question.Detail) (screen.Screen, tea.Cmd) {
	answer := joinLabels(p.childPending)
	if answer == "" {
		return p, nil
	}
	p.childPending = make(map[string]bool)
	idx := p.ctrl.Index()
	cid := child.ID
	g := p.grader
	return p, func() tea.Msg {
		res, err := g.Submit(context.Background(), cid, answer)
		return submitResultMsg{Index: idx, ChildID: cid, Answer: answer, Res: res, Err: err}
	}
}

func (p *PracticeScreen) resetCurrent() (screen.Screen, tea.Cmd) {
	e := p.ctrl.CurrentEntry()
	if e == nil || e.Status == question.StatusUnfilled || !p.ctrl.Policy().AllowReset {
		return p, nil
	}
	idx := p.ctrl.Index()
	qid := e.ID
	g := p.grader
	return p, func() tea.Msg {
		return resetDoneMsg{Index: idx, Err: g.Reset(context.Background(), qid)}
	}
}

func (p *PracticeScreen) removeCurrent() (screen.Screen, tea.Cmd) {
	e := p.ctrl.CurrentEntry()
	if e == nil || p.mistakes == nil {
		return p, nil
	}
	m := p.mistakes
	qid := e.ID
	return p, func() tea.Msg {
		return removeDoneMsg{QuestionID: qid, Err: m.Remove(context.Background(), qid)}
	}
}

func (p *PracticeScreen) handleSheetKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "s":
		p.showSheet = false
		return p, nil
	case "enter":
		n, err := p.sheetInput.NumericValue()
		p.showSheet = false
		if err != nil {
			return p, nil
		}
		p.ctrl.JumpTo(context.Background(), n-1) // sheet shows 1-based numbers
		return p, p.loadDetail()
	}
	var cmd tea.Cmd
	p.sheetInput, cmd = p.sheetInput.Update(msg)
	return p, cmd
}

// advance moves to the next question; moving past the end finishes the
// session and swaps in the summary screen.
func (p *PracticeScreen) advance() (screen.Screen, tea.Cmd) {
	if p.ctrl.Next(context.Background()) {
		return p.finish()
	}
	return p, p.loadDetail()
}

func (p *PracticeScreen) finish() (screen.Screen, tea.Cmd) {
	sum := sess.BuildSummary(p.ctrl)
	return p, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sum)}
	}
}

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	if p.showSheet {
		return []layout.KeyHint{
			{Key: "0-9", Description: "Number"},
			{Key: "Enter", Description: "Jump"},
			{Key: "Esc", Description: "Close sheet"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "←/→", Description: "Navigate"},
		{Key: "S", Description: "Sheet"},
	}
	d := p.ctrl.Current()
	pol := p.ctrl.Policy()
	switch {
	case d == nil:
	case !pol.Interactive:
		hints = append(hints,
			layout.KeyHint{Key: "Y", Description: "Knew it"},
			layout.KeyHint{Key: "W", Description: "Missed it"})
	case d.Kind == question.KindSubjective && !p.revealed:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Reveal answer"})
	case d.Kind == question.KindSubjective:
		hints = append(hints,
			layout.KeyHint{Key: "Y", Description: "Got it"},
			layout.KeyHint{Key: "W", Description: "Missed it"})
	case d.Kind == question.KindMulti:
		hints = append(hints,
			layout.KeyHint{Key: "Space", Description: "Toggle"},
			layout.KeyHint{Key: "Enter", Description: "Submit"})
	case d.Kind == question.KindGroup:
		hints = append(hints,
			layout.KeyHint{Key: "Tab", Description: "Next part"},
			layout.KeyHint{Key: "A-E", Description: "Answer"})
	default:
		hints = append(hints, layout.KeyHint{Key: "A-E", Description: "Answer"})
	}
	if pol.AllowReset {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Redo"})
	}
	if p.mistakes != nil {
		hints = append(hints, layout.KeyHint{Key: "X", Description: "Remove"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "End session"})
	return hints
}

// optionIndexForKey maps a/b/c... and 1/2/3... keys to an option index,
// returning -1 for anything else.
func optionIndexForKey(key string, n int) int {
	if len(key) != 1 {
		return -1
	}
	c := key[0]
	var i int
	switch {
	case c >= 'a' && c <= 'z':
		i = int(c - 'a')
	case c >= '1' && c <= '9':
		i = int(c - '1')
	default:
		return -1
	}
	if i >= n {
		return -1
	}
	return i
}

func joinLabels(set map[string]bool) string {
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return strings.Join(labels, "")
}
