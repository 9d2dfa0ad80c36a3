package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Key is the composite progress key: a subject (question bank) and a
// chapter or category path within it.
type Key struct {
	Subject  string
	Category string
}

// ChapterProgress is the persisted outcome history for one key. History
// records only the most recent outcome per question index: re-answering
// overwrites, it never appends.
type ChapterProgress struct {
	LastIndex int
	History   map[int]bool // index -> answered correctly
}

// ProgressRepo persists per-chapter answer history and resume positions.
// It is written only by the session controller and mistake manager, and
// read by the catalog tree and answer sheet.
type ProgressRepo interface {
	// Get returns the progress for key, or nil if none is recorded.
	Get(ctx context.Context, key Key) (*ChapterProgress, error)

	// SetOutcome records the most recent outcome for one question index.
	SetOutcome(ctx context.Context, key Key, index int, correct bool) error

	// ClearOutcome removes the recorded outcome for one question index.
	ClearOutcome(ctx context.Context, key Key, index int) error

	// SetLastIndex persists the resume position.
	SetLastIndex(ctx context.Context, key Key, index int) error

	// Reset overwrites the history with empty, preserving the row (and so
	// the key) for future resumption.
	Reset(ctx context.Context, key Key) error

	// DoneCount returns the number of recorded outcomes for key.
	DoneCount(ctx context.Context, subject, category string) (int, error)
}

type progressRepo struct {
	db *sql.DB
}

func (r *progressRepo) Get(ctx context.Context, key Key) (*ChapterProgress, error) {
	var lastIndex int
	var historyJSON string
	err := r.db.QueryRowContext(ctx,
		`SELECT last_index, history FROM chapter_progress WHERE subject = ? AND category = ?`,
		key.Subject, key.Category,
	).Scan(&lastIndex, &historyJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	history, err := decodeHistory(historyJSON)
	if err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &ChapterProgress{LastIndex: lastIndex, History: history}, nil
}

func (r *progressRepo) SetOutcome(ctx context.Context, key Key, index int, correct bool) error {
	return r.mutateHistory(ctx, key, func(h map[int]bool) {
		h[index] = correct
	})
}

func (r *progressRepo) ClearOutcome(ctx context.Context, key Key, index int) error {
	return r.mutateHistory(ctx, key, func(h map[int]bool) {
		delete(h, index)
	})
}

func (r *progressRepo) SetLastIndex(ctx context.Context, key Key, index int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chapter_progress (subject, category, last_index, history, updated_at)
		 VALUES (?, ?, ?, '{}', ?)
		 ON CONFLICT (subject, category)
		 DO UPDATE SET last_index = excluded.last_index, updated_at = excluded.updated_at`,
		key.Subject, key.Category, index, now(),
	)
	if err != nil {
		return fmt.Errorf("set last index: %w", err)
	}
	return nil
}

func (r *progressRepo) Reset(ctx context.Context, key Key) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chapter_progress (subject, category, last_index, history, updated_at)
		 VALUES (?, ?, 0, '{}', ?)
		 ON CONFLICT (subject, category)
		 DO UPDATE SET last_index = 0, history = '{}', updated_at = excluded.updated_at`,
		key.Subject, key.Category, now(),
	)
	if err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

func (r *progressRepo) DoneCount(ctx context.Context, subject, category string) (int, error) {
	p, err := r.Get(ctx, Key{Subject: subject, Category: category})
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	return len(p.History), nil
}

// mutateHistory reads, mutates, and writes back the history blob. The app
// is single-user and single-threaded per key, so last-write-wins per index
// is sufficient; no transaction discipline beyond that is needed.
func (r *progressRepo) mutateHistory(ctx context.Context, key Key, mutate func(map[int]bool)) error {
	p, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	lastIndex := 0
	history := map[int]bool{}
	if p != nil {
		lastIndex = p.LastIndex
		history = p.History
	}
	mutate(history)

	encoded, err := encodeHistory(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chapter_progress (subject, category, last_index, history, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (subject, category)
		 DO UPDATE SET history = excluded.history, updated_at = excluded.updated_at`,
		key.Subject, key.Category, lastIndex, encoded, now(),
	)
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// History is stored as a JSON object keyed by stringified index, so the
// blob stays readable with the sqlite CLI.
func encodeHistory(h map[int]bool) (string, error) {
	m := make(map[string]bool, len(h))
	for k, v := range h {
		m[strconv.Itoa(k)] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeHistory(s string) (map[int]bool, error) {
	var m map[string]bool
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	h := make(map[int]bool, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("bad history index %q: %w", k, err)
		}
		h[i] = v
	}
	return h, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
