package practice

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/hahahahacnm/medbank/internal/mistake"
	"github.com/hahahahacnm/medbank/internal/question"
	sess "github.com/hahahahacnm/medbank/internal/session"
	"github.com/hahahahacnm/medbank/internal/store"
)

type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) RemoveMistake(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func testBundle() *question.Bundle {
	return &question.Bundle{
		Name:   "test bank",
		Source: "bank-a",
		Questions: []question.Detail{
			{ID: "q1", Kind: question.KindSingle, Stem: "First?", Category: "cardio/arr",
				Options: []question.Option{{Label: "A", Text: "yes"}, {Label: "B", Text: "no"}},
				Answer:  "A"},
			{ID: "q2", Kind: question.KindSingle, Stem: "Second?", Category: "cardio/arr",
				Options: []question.Option{{Label: "A", Text: "yes"}, {Label: "B", Text: "no"}},
				Answer:  "B"},
			{ID: "q3", Kind: question.KindSingle, Stem: "Third?", Category: "cardio/arr",
				Options: []question.Option{{Label: "A", Text: "yes"}, {Label: "B", Text: "no"}},
				Answer:  "A"},
		},
	}
}

func testConfig(mode sess.Mode) sess.Config {
	pre := question.NewPreloaded(testBundle())
	return sess.Config{
		Source:   pre,
		Grader:   pre,
		Progress: store.NewMemoryProgress(),
		Mode:     mode,
		Domain:   sess.DomainChapter,
		Bank:     "bank-a",
		Category: "cardio",
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// loadFirst runs the start sequence until the first detail is applied.
func loadFirst(t *testing.T, p *PracticeScreen) {
	t.Helper()
	msg := p.Init()()
	if sk, ok := msg.(skeletonLoadedMsg); !ok || sk.Err != nil {
		t.Fatalf("start: %#v", msg)
	}
	_, cmd := p.Update(msg)
	if cmd == nil {
		t.Fatal("expected a detail load after the skeleton arrived")
	}
	if _, c := p.Update(cmd()); c != nil {
		t.Fatal("detail apply should not emit a command")
	}
	if p.ctrl.Current() == nil {
		t.Fatal("detail not loaded")
	}
}

func TestFastModeAdvancesOnCorrectOnly(t *testing.T) {
	p := New(testConfig(sess.ModeFast), nil)
	loadFirst(t, p)

	// An incorrect answer stays put: no tick is scheduled.
	_, cmd := p.Update(submitResultMsg{Index: 0, Answer: "B", Res: question.SubmitResult{Correct: false}})
	if cmd != nil {
		t.Error("incorrect answer must not schedule an advance")
	}
	if p.ctrl.Index() != 0 {
		t.Fatalf("index = %d, want 0", p.ctrl.Index())
	}

	if _, cmd := p.Update(resetDoneMsg{Index: 0}); cmd != nil {
		t.Fatal("reset should not emit a command")
	}

	// A correct answer schedules the delayed advance, delivered as
	// autoAdvanceMsg for the index it was issued at.
	_, cmd = p.Update(submitResultMsg{Index: 0, Answer: "A", Res: question.SubmitResult{Correct: true}})
	if cmd == nil {
		t.Fatal("correct answer must schedule the advance")
	}
	if _, cmd := p.Update(autoAdvanceMsg{Index: 0}); cmd == nil {
		t.Fatal("advance must load the next detail")
	}
	if p.ctrl.Index() != 1 {
		t.Errorf("index = %d, want 1", p.ctrl.Index())
	}

	// A late tick for an abandoned position is dropped.
	p.Update(autoAdvanceMsg{Index: 0})
	if p.ctrl.Index() != 1 {
		t.Errorf("stale advance moved the index to %d", p.ctrl.Index())
	}
}

func TestAutoRemoveAfterCorrectAnswer(t *testing.T) {
	cfg := testConfig(sess.ModePractice)
	cfg.Domain = sess.DomainMistakes
	cfg.AutoRemoveOnCorrect = true
	remover := &fakeRemover{}
	mgr := mistake.NewManager(cfg.Source, remover, question.MistakeCategory, "bank-a")

	p := New(cfg, mgr)
	loadFirst(t, p)

	_, cmd := p.Update(submitResultMsg{Index: 0, Answer: "A", Res: question.SubmitResult{Correct: true}})
	if cmd == nil {
		t.Fatal("correct answer with auto-remove on must schedule the removal tick")
	}

	_, cmd = p.Update(autoRemoveTickMsg{QuestionID: "q1"})
	if cmd == nil {
		t.Fatal("expected the removal command")
	}
	msg := cmd()
	rd, ok := msg.(removeDoneMsg)
	if !ok || rd.Err != nil {
		t.Fatalf("removal result: %#v", msg)
	}
	if len(remover.removed) != 1 || remover.removed[0] != "q1" {
		t.Fatalf("removed = %v, want [q1]", remover.removed)
	}

	before := p.ctrl.Len()
	p.Update(rd)
	if p.ctrl.Len() != before-1 {
		t.Errorf("len = %d, want %d", p.ctrl.Len(), before-1)
	}
}

func TestResetInGraceWindowCancelsAutoRemove(t *testing.T) {
	cfg := testConfig(sess.ModePractice)
	cfg.Domain = sess.DomainMistakes
	cfg.AutoRemoveOnCorrect = true
	remover := &fakeRemover{}
	mgr := mistake.NewManager(cfg.Source, remover, question.MistakeCategory, "bank-a")

	p := New(cfg, mgr)
	loadFirst(t, p)

	_, cmd := p.Update(submitResultMsg{Index: 0, Answer: "A", Res: question.SubmitResult{Correct: true}})
	if cmd == nil {
		t.Fatal("correct answer with auto-remove on must schedule the removal tick")
	}
	p.Update(resetDoneMsg{Index: 0})

	if _, cmd := p.Update(autoRemoveTickMsg{QuestionID: "q1"}); cmd != nil {
		t.Error("reset during the grace window must cancel the removal")
	}
	if len(remover.removed) != 0 {
		t.Errorf("removed = %v, want none", remover.removed)
	}
	if p.ctrl.Len() != 3 {
		t.Errorf("len = %d, want 3", p.ctrl.Len())
	}
}

// brokenProgress fails every outcome write.
type brokenProgress struct {
	*store.MemoryProgress
}

func (b *brokenProgress) SetOutcome(context.Context, store.Key, int, bool) error {
	return errors.New("disk full")
}

func TestFailedProgressWriteIsSurfaced(t *testing.T) {
	cfg := testConfig(sess.ModePractice)
	cfg.Progress = &brokenProgress{store.NewMemoryProgress()}

	p := New(cfg, nil)
	loadFirst(t, p)

	p.Update(submitResultMsg{Index: 0, Answer: "A", Res: question.SubmitResult{Correct: true}})
	if p.errMsg == "" {
		t.Fatal("a failed history write must be shown, not swallowed")
	}
	// The outcome itself is still applied so the screen reflects the grade.
	if st := p.ctrl.CurrentEntry().Status; st != question.StatusCorrect {
		t.Errorf("status = %v, want correct", st)
	}
}

func TestStudyModeSelfReport(t *testing.T) {
	p := New(testConfig(sess.ModeStudy), nil)
	loadFirst(t, p)

	// Viewing alone records nothing; correctness comes from the learner.
	if st := p.ctrl.CurrentEntry().Status; st != question.StatusUnfilled {
		t.Fatalf("status after load = %v, want unfilled", st)
	}

	p.Update(keyPress('w'))
	if st := p.ctrl.CurrentEntry().Status; st != question.StatusWrong {
		t.Fatalf("status after w = %v, want wrong", st)
	}

	// The report can be corrected while still on the question.
	p.Update(keyPress('y'))
	if st := p.ctrl.CurrentEntry().Status; st != question.StatusCorrect {
		t.Fatalf("status after y = %v, want correct", st)
	}
}
