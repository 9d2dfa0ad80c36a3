package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Preference keys used by the application.
const (
	PrefAutoRemoveOnCorrect = "auto_remove_on_correct"
	PrefLastBank            = "last_bank"
)

// PrefsRepo is a small key-value capability for user preferences. It is
// injected into the components that need it, never reached for as ambient
// global state, so tests can substitute a deterministic implementation.
type PrefsRepo interface {
	// Get returns the stored value, or "" when the key is unset.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type prefsRepo struct {
	db *sql.DB
}

func (r *prefsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query preference %s: %w", key, err)
	}
	return value, nil
}

func (r *prefsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// BoolPref parses a stored boolean preference, defaulting to def when unset.
func BoolPref(ctx context.Context, prefs PrefsRepo, key string, def bool) bool {
	v, err := prefs.Get(ctx, key)
	if err != nil || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
