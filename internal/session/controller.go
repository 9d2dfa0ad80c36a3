package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hahahahacnm/medbank/internal/question"
	"github.com/hahahahacnm/medbank/internal/store"
)

// Domain scopes a session to regular chapter practice or the mistake book.
type Domain string

const (
	DomainChapter  Domain = "chapter"
	DomainMistakes Domain = "mistakes"
)

// Errors surfaced by controller operations.
var (
	ErrNotStarted     = errors.New("session not started")
	ErrNoCurrent      = errors.New("no current question")
	ErrAlreadyGraded  = errors.New("outcome already recorded")
	ErrResetForbidden = errors.New("reset unavailable in this mode")
	ErrNotInteractive = errors.New("mode has no interactive answering")
)

// Config wires a Controller.
type Config struct {
	Source   question.Source
	Grader   question.Grader
	Progress store.ProgressRepo

	Mode     Mode
	Domain   Domain
	Bank     string // subject / question bank identifier
	Category string // selected catalog path

	// AutoRemoveOnCorrect schedules mistake removal after a correct answer
	// (mistakes domain only, sourced from a user preference).
	AutoRemoveOnCorrect bool
}

// Controller orchestrates one practice session: skeleton fetch, lazy detail
// resolution, answer submission, progress persistence, and navigation, with
// the mode policy applied at each decision point. It is driven from the UI
// thread; blocking calls are made from command closures and their results
// applied back through the Apply* methods, which drop stale responses.
type Controller struct {
	cfg    Config
	policy Policy
	id     string

	entries []question.SkeletonEntry
	summary question.ListSummary
	index   int
	current *question.Detail

	// pending is the accumulating multi-choice selection for the current
	// question, keyed by option label.
	pending map[string]bool

	// childStatus tracks per-child outcomes inside a group question.
	childStatus map[string]question.Status

	// seq tags detail requests with the navigation step they were issued
	// for, so a response that lands after the user moved on is discarded.
	seq uint64

	started   bool
	completed bool
}

// New creates a Controller. Start must be called before anything else.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:         cfg,
		policy:      PolicyFor(cfg.Mode),
		id:          uuid.New().String(),
		pending:     make(map[string]bool),
		childStatus: make(map[string]question.Status),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Policy returns the active mode policy.
func (c *Controller) Policy() Policy { return c.policy }

// Domain returns the session domain.
func (c *Controller) Domain() Domain { return c.cfg.Domain }

// AutoRemoveOnCorrect reports the mistake auto-removal preference.
func (c *Controller) AutoRemoveOnCorrect() bool {
	return c.cfg.Domain == DomainMistakes && c.cfg.AutoRemoveOnCorrect
}

func (c *Controller) key() store.Key {
	category := c.cfg.Category
	if c.cfg.Domain == DomainMistakes {
		category = "mistakes|" + category
	}
	return store.Key{Subject: c.cfg.Bank, Category: category}
}

// Start fetches the skeleton list, replays recorded outcomes onto it, and
// restores the resume position. A fetch failure is fatal to session start.
func (c *Controller) Start(ctx context.Context) error {
	list, err := c.cfg.Source.ListSkeleton(ctx, c.cfg.Category, c.cfg.Bank)
	if err != nil {
		return fmt.Errorf("list skeleton: %w", err)
	}
	c.entries = list.Entries
	c.summary = list.Summary
	c.index = 0
	c.current = nil
	c.completed = false
	c.started = true
	c.seq++

	if c.cfg.Progress != nil && c.cfg.Domain == DomainChapter {
		prog, err := c.cfg.Progress.Get(ctx, c.key())
		if err == nil && prog != nil {
			for i := range c.entries {
				if correct, ok := prog.History[i]; ok && c.entries[i].Status == question.StatusUnfilled {
					if correct {
						c.entries[i].Status = question.StatusCorrect
					} else {
						c.entries[i].Status = question.StatusWrong
					}
				}
			}
			if prog.LastIndex > 0 && prog.LastIndex < len(c.entries) {
				c.index = prog.LastIndex
			}
		}
	}
	return nil
}

// Entries returns the skeleton list.
func (c *Controller) Entries() []question.SkeletonEntry { return c.entries }

// ListSummary returns the server-side aggregate for the skeleton list.
func (c *Controller) ListSummary() question.ListSummary { return c.summary }

// Len returns the number of top-level entries.
func (c *Controller) Len() int { return len(c.entries) }

// Index returns the current 0-based index.
func (c *Controller) Index() int { return c.index }

// Seq returns the current navigation sequence for tagging detail requests.
func (c *Controller) Seq() uint64 { return c.seq }

// Completed reports whether the list was exhausted via Next.
func (c *Controller) Completed() bool { return c.completed }

// Current returns the resolved detail for the current index, or nil while
// it is loading or failed.
func (c *Controller) Current() *question.Detail { return c.current }

// CurrentEntry returns the skeleton entry at the current index, or nil.
func (c *Controller) CurrentEntry() *question.SkeletonEntry {
	if c.index < 0 || c.index >= len(c.entries) {
		return nil
	}
	return &c.entries[c.index]
}

// DetailRequest returns the entry ID and sequence tag for resolving the
// current question. ok is false when the list is empty.
func (c *Controller) DetailRequest() (id string, seq uint64, ok bool) {
	e := c.CurrentEntry()
	if e == nil {
		return "", 0, false
	}
	return e.ID, c.seq, true
}

// ApplyDetail installs a resolved detail if its sequence tag is still
// current; stale responses are discarded.
func (c *Controller) ApplyDetail(seq uint64, d *question.Detail) bool {
	if seq != c.seq {
		return false
	}
	c.current = d
	c.pending = make(map[string]bool)
	c.childStatus = make(map[string]question.Status)
	return true
}

// ToggleOption records an option selection for the current question.
// Single-choice selection replaces the pending set and reports submitNow;
// multi-choice selection toggles membership and waits for confirmation.
func (c *Controller) ToggleOption(label string) (submitNow bool, err error) {
	if !c.policy.Interactive {
		return false, ErrNotInteractive
	}
	e := c.CurrentEntry()
	if e == nil || c.current == nil {
		return false, ErrNoCurrent
	}
	if e.Status != question.StatusUnfilled && !c.policy.AllowResubmit {
		return false, ErrAlreadyGraded
	}

	switch c.current.Kind {
	case question.KindMulti:
		if c.pending[label] {
			delete(c.pending, label)
		} else {
			c.pending[label] = true
		}
		return false, nil
	default:
		c.pending = map[string]bool{label: true}
		return true, nil
	}
}

// PendingAnswer returns the answer string that a submission would carry:
// the joined, sorted selection for multi-choice, the single label otherwise.
func (c *Controller) PendingAnswer() string {
	labels := make([]string, 0, len(c.pending))
	for l := range c.pending {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return strings.Join(labels, "")
}

// CanConfirm reports whether a multi-choice confirmation would submit.
func (c *Controller) CanConfirm() bool {
	return c.current != nil && c.current.Kind == question.KindMulti && len(c.pending) > 0
}

// ApplySubmit records a graded outcome for the entry at index. The result
// is discarded when index no longer matches the current position (the user
// navigated away while the submission was in flight). On success the entry
// status and the persisted history are overwritten with the new outcome.
func (c *Controller) ApplySubmit(ctx context.Context, index int, res question.SubmitResult) (bool, error) {
	if !c.started || index != c.index || index >= len(c.entries) {
		return false, nil
	}
	e := &c.entries[index]
	if e.Status != question.StatusUnfilled && !c.policy.AllowResubmit {
		return false, ErrAlreadyGraded
	}

	if res.Correct {
		e.Status = question.StatusCorrect
	} else {
		e.Status = question.StatusWrong
	}
	if c.current != nil {
		if res.CorrectAnswer != "" {
			c.current.Answer = res.CorrectAnswer
		}
		if res.Analysis != "" {
			c.current.Analysis = res.Analysis
		}
	}
	c.pending = make(map[string]bool)

	if c.cfg.Progress != nil {
		if err := c.cfg.Progress.SetOutcome(ctx, c.key(), index, res.Correct); err != nil {
			return true, fmt.Errorf("record outcome: %w", err)
		}
	}
	return true, nil
}

// ApplyChildSubmit records a graded outcome for one child of a group
// question. The parent entry's outcome is recorded once every child has
// one: correct only when all children are correct.
func (c *Controller) ApplyChildSubmit(ctx context.Context, index int, childID string, res question.SubmitResult) (bool, error) {
	if !c.started || index != c.index || c.current == nil {
		return false, nil
	}
	if res.Correct {
		c.childStatus[childID] = question.StatusCorrect
	} else {
		c.childStatus[childID] = question.StatusWrong
	}

	allCorrect := true
	for i := range c.current.Children {
		st, ok := c.childStatus[c.current.Children[i].ID]
		if !ok {
			return true, nil // still unanswered children
		}
		if st != question.StatusCorrect {
			allCorrect = false
		}
	}
	return c.ApplySubmit(ctx, index, question.SubmitResult{Correct: allCorrect})
}

// ChildStatus returns the recorded status for a group child.
func (c *Controller) ChildStatus(childID string) question.Status {
	return c.childStatus[childID]
}

// SelfReport records a self-assessed outcome for the current question.
// Used by study mode and by subjective questions in any mode; the outcome
// is treated identically to a submitted one for progress recording.
func (c *Controller) SelfReport(ctx context.Context, correct bool) error {
	e := c.CurrentEntry()
	if e == nil {
		return ErrNoCurrent
	}
	if e.Status != question.StatusUnfilled && !c.policy.AllowResubmit {
		return ErrAlreadyGraded
	}
	_, err := c.ApplySubmit(ctx, c.index, question.SubmitResult{Correct: correct})
	return err
}

// ApplyReset clears the recorded outcome for the entry at index after the
// server-side reset succeeded. The on-screen recurrence count display is
// cleared too; the server-authoritative count is unaffected.
func (c *Controller) ApplyReset(ctx context.Context, index int) error {
	if !c.policy.AllowReset {
		return ErrResetForbidden
	}
	if index < 0 || index >= len(c.entries) {
		return ErrNoCurrent
	}
	e := &c.entries[index]
	e.Status = question.StatusUnfilled
	e.WrongCount = nil
	if index == c.index {
		c.pending = make(map[string]bool)
		c.childStatus = make(map[string]question.Status)
	}
	if c.cfg.Progress != nil {
		if err := c.cfg.Progress.ClearOutcome(ctx, c.key(), index); err != nil {
			return fmt.Errorf("clear outcome: %w", err)
		}
	}
	return nil
}

// Next moves forward one question, clamped to the list bounds. Moving past
// the last index completes the session instead. Every move persists the
// resume position.
func (c *Controller) Next(ctx context.Context) (completed bool) {
	if !c.started || len(c.entries) == 0 {
		return false
	}
	if c.index >= len(c.entries)-1 {
		c.completed = true
		return true
	}
	c.moveTo(ctx, c.index+1)
	return false
}

// Prev moves back one question, clamped at zero.
func (c *Controller) Prev(ctx context.Context) {
	if !c.started || c.index == 0 {
		return
	}
	c.moveTo(ctx, c.index-1)
}

// JumpTo moves directly to index (answer-sheet navigation), clamped to
// the list bounds.
func (c *Controller) JumpTo(ctx context.Context, index int) {
	if !c.started || len(c.entries) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.entries)-1 {
		index = len(c.entries) - 1
	}
	if index != c.index {
		c.moveTo(ctx, index)
	}
}

func (c *Controller) moveTo(ctx context.Context, index int) {
	c.index = index
	c.current = nil
	c.pending = make(map[string]bool)
	c.childStatus = make(map[string]question.Status)
	c.seq++
	if c.cfg.Progress != nil {
		// Resume position is best-effort; a failed write must not block
		// navigation.
		_ = c.cfg.Progress.SetLastIndex(ctx, c.key(), index)
	}
}

// ApplyWrongCount installs a refreshed recurrence count for a mistake
// entry, updating the on-screen counter when it is the current question.
func (c *Controller) ApplyWrongCount(questionID string, count int) {
	for i := range c.entries {
		if c.entries[i].ID == questionID {
			n := count
			c.entries[i].WrongCount = &n
			break
		}
	}
	if c.current != nil && c.current.ID == questionID {
		c.current.WrongCount = count
	}
}

// RemoveEntry drops a mistake entry from the working set after the remote
// removal succeeded. Display indices are renumbered; removing an entry
// before the current one keeps the current question in view. If the removed
// entry was current, the index clamps to the new last valid position, and
// the detail view is cleared when the list becomes empty.
func (c *Controller) RemoveEntry(questionID string) {
	at := -1
	for i := range c.entries {
		if c.entries[i].ID == questionID {
			at = i
			break
		}
	}
	if at == -1 {
		return
	}
	c.entries = append(c.entries[:at], c.entries[at+1:]...)
	for i := range c.entries {
		c.entries[i].Index = i + 1
	}

	if len(c.entries) == 0 {
		c.index = 0
		c.current = nil
		c.seq++
		return
	}
	if at < c.index {
		// Entries above the removal shift down one slot; follow the one
		// the user is looking at so the loaded detail stays valid.
		c.index--
		return
	}
	if c.index > len(c.entries)-1 {
		c.index = len(c.entries) - 1
		c.current = nil
		c.seq++
	} else if at == c.index {
		// A different entry now occupies the current slot.
		c.current = nil
		c.seq++
	}
}

// FeedbackVisible reports whether the outcome indicator for the current
// entry may be rendered, per the mode policy.
func (c *Controller) FeedbackVisible() bool {
	switch c.policy.Feedback {
	case FeedbackImmediate:
		return true
	case FeedbackDeferred:
		return c.completed
	default:
		e := c.CurrentEntry()
		return e != nil && e.Status != question.StatusUnfilled
	}
}
