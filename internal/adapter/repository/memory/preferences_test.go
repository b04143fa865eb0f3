package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func TestPreferencesRepository_RepeatState(t *testing.T) {
	repo := NewPreferencesRepository()
	ctx := context.Background()

	repeat, saved, err := repo.LoadRepeatState(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, domain.RepeatOff, repeat, "default when nothing was saved")

	require.NoError(t, repo.SaveRepeatState(ctx, domain.RepeatList))
	repeat, saved, err = repo.LoadRepeatState(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, domain.RepeatList, repeat)

	require.NoError(t, repo.SaveRepeatState(ctx, domain.RepeatOff))
	repeat, saved, err = repo.LoadRepeatState(ctx)
	require.NoError(t, err)
	assert.True(t, saved, "a saved RepeatOff is still saved")
	assert.Equal(t, domain.RepeatOff, repeat)

	repo.Clear()
	_, saved, err = repo.LoadRepeatState(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestPreferencesRepository_CorruptValue(t *testing.T) {
	repo := NewPreferencesRepository()
	repo.values[keyRepeat] = "sometimes"

	_, _, err := repo.LoadRepeatState(context.Background())
	var repoErr *domain.RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, "preferences", repoErr.Type)
}
