// Package mistake implements the mistake-book extension: recurrence-count
// refresh after incorrect answers and manual or automatic removal of
// questions answered correctly. It is active only for sessions whose
// domain is mistakes.
package mistake

import (
	"context"
	"fmt"
	"time"

	"github.com/hahahahacnm/medbank/internal/question"
)

// AutoRemoveDelay is how long a correctly answered mistake stays visible
// before the scheduled removal fires, so the feedback can register.
const AutoRemoveDelay = 1200 * time.Millisecond

// Remover deletes a question from the server-side mistake book.
type Remover interface {
	RemoveMistake(ctx context.Context, questionID string) error
}

// Manager performs the mistake-domain side effects for one session scope.
type Manager struct {
	source   question.Source
	remover  Remover
	category string
	bank     string
}

// NewManager creates a Manager scoped to one category and bank.
func NewManager(source question.Source, remover Remover, category, bank string) *Manager {
	return &Manager{source: source, remover: remover, category: category, bank: bank}
}

// RefreshWrongCount re-fetches the authoritative recurrence count for a
// question by re-listing the skeleton (there is no dedicated endpoint).
// The locally cached count may predate the current attempt, so it is never
// trusted after an incorrect answer.
func (m *Manager) RefreshWrongCount(ctx context.Context, questionID string) (int, error) {
	list, err := m.source.ListSkeleton(ctx, m.category, m.bank)
	if err != nil {
		return 0, fmt.Errorf("refresh recurrence count: %w", err)
	}
	for _, e := range list.Entries {
		if e.ID == questionID {
			if e.WrongCount == nil {
				return 0, nil
			}
			return *e.WrongCount, nil
		}
	}
	return 0, fmt.Errorf("question %s: %w", questionID, question.ErrNotFound)
}

// Remove deletes the question from the server-side mistake book. The
// caller drops the local entry only after this succeeds, so local state
// never diverges from server truth on failure.
func (m *Manager) Remove(ctx context.Context, questionID string) error {
	if err := m.remover.RemoveMistake(ctx, questionID); err != nil {
		return fmt.Errorf("remove mistake %s: %w", questionID, err)
	}
	return nil
}
