package practice

import (
	"github.com/hahahahacnm/medbank/internal/question"
)

// skeletonLoadedMsg reports the result of the initial skeleton fetch.
type skeletonLoadedMsg struct {
	Err error
}

// detailLoadedMsg carries a resolved question detail. Seq is the navigation
// sequence the request was issued under; the controller drops it when the
// user has since moved on.
type detailLoadedMsg struct {
	Seq    uint64
	Detail *question.Detail
	Err    error
}

// submitResultMsg carries a graded outcome back from the grader. Index is
// the position the answer was submitted for; ChildID is set when the
// submission was for a group child.
type submitResultMsg struct {
	Index   int
	ChildID string
	Answer  string
	Res     question.SubmitResult
	Err     error
}

// resetDoneMsg reports a completed server-side answer reset.
type resetDoneMsg struct {
	Index int
	Err   error
}

// wrongCountMsg carries a refreshed recurrence count for a mistake entry.
type wrongCountMsg struct {
	QuestionID string
	Count      int
	Err        error
}

// removeDoneMsg reports a completed mistake-book removal.
type removeDoneMsg struct {
	QuestionID string
	Err        error
}

// autoAdvanceMsg fires after the fast-mode linger delay. Index guards
// against advancing when the user already navigated elsewhere.
type autoAdvanceMsg struct {
	Index int
}

// autoRemoveTickMsg fires after the auto-removal grace delay for a
// correctly answered mistake entry.
type autoRemoveTickMsg struct {
	QuestionID string
}
