package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

const keyRepeat = "preferences.repeat"

// SaveRepeatState persists the repeat mode.
func (s *Store) SaveRepeatState(ctx context.Context, repeat domain.RepeatState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, keyRepeat, repeat.String())
	if err != nil {
		return domain.NewRepositoryError("save", "preferences", "failed to save repeat state", err)
	}
	return nil
}

// LoadRepeatState retrieves the saved repeat mode. saved reports whether a row exists.
func (s *Store) LoadRepeatState(ctx context.Context) (domain.RepeatState, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, keyRepeat).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RepeatOff, false, nil
	}
	if err != nil {
		return domain.RepeatOff, false, domain.NewRepositoryError("load", "preferences", "failed to load repeat state", err)
	}

	repeat, err := domain.ParseRepeatState(value)
	if err != nil {
		return domain.RepeatOff, false, domain.NewRepositoryError("load", "preferences", "stored repeat state is invalid", err)
	}
	return repeat, true, nil
}
