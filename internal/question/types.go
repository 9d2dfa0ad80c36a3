package question

import (
	"context"
	"strings"
)

// MistakeCategory is the reserved category selecting the mistake book
// instead of a chapter.
const MistakeCategory = "mistakes"

// CategoryMatches reports whether a question's category falls under the
// selected catalog path: the path itself or anything below it. Plain prefix
// matching would make "cardio" swallow "cardiology/...", so the boundary
// must be a path separator.
func CategoryMatches(category, selected string) bool {
	if selected == "" || category == selected {
		return true
	}
	return strings.HasPrefix(category, selected+"/")
}

// Kind classifies how a question is answered.
type Kind string

const (
	KindSingle     Kind = "single"     // one option, selection submits
	KindMulti      Kind = "multi"      // several options, explicit confirm
	KindSubjective Kind = "subjective" // free answer, self-reported correctness
	KindGroup      Kind = "group"      // shared stem with child sub-questions
)

// Status is the recorded outcome of a skeleton entry within a session.
type Status int

const (
	StatusUnfilled Status = iota
	StatusCorrect
	StatusWrong
)

// SkeletonEntry is the lightweight per-question summary fetched before
// full content. Status and WrongCount are the only fields mutated during
// a session.
type SkeletonEntry struct {
	ID         string
	Index      int // 1-based display index within the current list
	Status     Status
	WrongCount *int // recurrence count, mistakes domain only
}

// ListSummary is the server-side aggregate returned with a skeleton list.
type ListSummary struct {
	AttemptedNum int     `json:"attempted_num"`
	AccuracyRate float64 `json:"accuracy_rate"`
}

// SkeletonList is an ordered skeleton plus its summary.
type SkeletonList struct {
	Entries []SkeletonEntry
	Summary ListSummary
}

// Option is a single answer choice.
type Option struct {
	Label string `json:"label"` // "A", "B", ...
	Text  string `json:"text"`
}

// Detail is the fully resolved question content. For KindGroup the option
// set is shared and Children carry their own answers and correctness.
type Detail struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"kind"`
	Stem       string   `json:"stem"`
	Options    []Option `json:"options,omitempty"`
	Answer     string   `json:"answer"`
	Analysis   string   `json:"analysis,omitempty"`
	Category   string   `json:"category,omitempty"`
	WrongCount int      `json:"wrong_count,omitempty"`
	Children   []Detail `json:"children,omitempty"`
}

// SubmitResult is the graded outcome of an answer submission. ReceiptID
// identifies the recorded submission on the server.
type SubmitResult struct {
	Correct       bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Analysis      string `json:"analysis"`
	ReceiptID     string `json:"receipt_id,omitempty"`
}

// Source provides the two-phase question loading contract: a cheap ordered
// skeleton for a category, then on-demand resolution of one entry to its
// full detail. Both steps exist even for sources where resolution is
// trivially synchronous, so the session controller stays source-agnostic.
type Source interface {
	ListSkeleton(ctx context.Context, category, source string) (SkeletonList, error)
	ResolveDetail(ctx context.Context, entryID string) (*Detail, error)
}

// Grader evaluates submitted answers and clears recorded ones.
type Grader interface {
	Submit(ctx context.Context, questionID, answer string) (SubmitResult, error)
	Reset(ctx context.Context, questionID string) error
}
