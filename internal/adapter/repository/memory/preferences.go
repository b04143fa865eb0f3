package memory

import (
	"context"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

const keyRepeat = "preferences.repeat"

// PreferencesRepository implements ports.PreferencesRepository with an in-memory key/value map.
// Values are stored in their string form, the same way the SQLite store keeps them.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
func NewPreferencesRepository() *PreferencesRepository {
	return &PreferencesRepository{
		values: make(map[string]string),
	}
}

// SaveRepeatState persists the repeat mode.
func (r *PreferencesRepository) SaveRepeatState(_ context.Context, repeat domain.RepeatState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[keyRepeat] = repeat.String()
	return nil
}

// LoadRepeatState retrieves the saved repeat mode. saved reports whether a value exists.
func (r *PreferencesRepository) LoadRepeatState(_ context.Context) (domain.RepeatState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[keyRepeat]
	if !ok {
		return domain.RepeatOff, false, nil
	}
	repeat, err := domain.ParseRepeatState(value)
	if err != nil {
		return domain.RepeatOff, false, domain.NewRepositoryError("load", "preferences", "stored repeat state is invalid", err)
	}
	return repeat, true, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.values)
}

// Verify that PreferencesRepository implements the interface
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
