package mock

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func newOpenEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine()
	require.NoError(t, engine.Open(context.Background()))
	return engine
}

func TestNewMockEngine(t *testing.T) {
	engine := NewEngine()

	require.NotNil(t, engine)
	assert.False(t, engine.IsOpen())
	assert.Equal(t, 0, engine.LoadCount())
}

func TestOpen(t *testing.T) {
	engine := newOpenEngine(t)
	assert.True(t, engine.IsOpen())

	err := engine.Open(context.Background())
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)

	require.NoError(t, engine.Close())
	assert.False(t, engine.IsOpen())
	assert.NoError(t, engine.Close())
}

func TestOpenFailure(t *testing.T) {
	engine := NewEngine()
	engine.SetFailOpen(true)

	err := engine.Open(context.Background())
	var engineErr *domain.AudioEngineError
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, "open", engineErr.Op)
}

func TestLoadBeforeOpen(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Load(context.Background(), domain.Track{ID: 1})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestLoad(t *testing.T) {
	engine := newOpenEngine(t)

	d, err := engine.Load(context.Background(), domain.Track{ID: 1, Duration: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	d, err = engine.Load(context.Background(), domain.Track{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, DefaultDuration, d)

	loaded, ok := engine.Loaded()
	require.True(t, ok)
	assert.Equal(t, int64(2), loaded.ID)
	assert.Equal(t, 2, engine.LoadCount())
	assert.False(t, engine.IsPlaying())
}

func TestLoadFailure(t *testing.T) {
	engine := newOpenEngine(t)
	engine.SetFailLoad(true)

	_, err := engine.Load(context.Background(), domain.Track{ID: 1, Path: "/x.flac"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Equal(t, 1, engine.LoadCount())

	_, ok := engine.Loaded()
	assert.False(t, ok)
}

func TestManualAck(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		engine := newOpenEngine(t)
		engine.SetManualAck(true)

		done := make(chan error, 1)
		go func() {
			_, err := engine.Load(context.Background(), domain.Track{ID: 1})
			done <- err
		}()

		synctest.Wait()
		assert.Empty(t, done, "load must wait for the ack")

		engine.AckLoad()
		require.NoError(t, <-done)

		go func() {
			_, err := engine.Load(context.Background(), domain.Track{ID: 2})
			done <- err
		}()
		cause := errors.New("device lost")
		engine.FailLoad(cause)
		assert.ErrorIs(t, <-done, cause)
	})
}

func TestManualAckCancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		engine := newOpenEngine(t)
		engine.SetManualAck(true)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := engine.Load(ctx, domain.Track{ID: 1})
			done <- err
		}()

		synctest.Wait()
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestPlayPauseSeek(t *testing.T) {
	engine := newOpenEngine(t)

	assert.ErrorIs(t, engine.Play(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, engine.Seek(time.Second), domain.ErrNoTrackLoaded)

	_, err := engine.Load(context.Background(), domain.Track{ID: 1, Duration: time.Minute})
	require.NoError(t, err)

	require.NoError(t, engine.Play())
	assert.True(t, engine.IsPlaying())

	require.NoError(t, engine.Seek(30*time.Second))
	assert.Equal(t, 30*time.Second, engine.Position())
	assert.Error(t, engine.Seek(2*time.Minute))
	assert.Equal(t, []time.Duration{30 * time.Second}, engine.Seeks())

	require.NoError(t, engine.Pause())
	assert.False(t, engine.IsPlaying())

	engine.SetFailPlay(true)
	assert.ErrorIs(t, engine.Play(), domain.ErrPlaybackFailed)
}

func TestSimulateProgress(t *testing.T) {
	engine := newOpenEngine(t)

	_, err := engine.Load(context.Background(), domain.Track{ID: 1, Duration: 10 * time.Second})
	require.NoError(t, err)
	require.NoError(t, engine.Play())

	require.NoError(t, engine.SimulateProgress(4*time.Second))
	ev := <-engine.Events()
	tick, ok := ev.(domain.PositionTickEvent)
	require.True(t, ok)
	assert.Equal(t, 4*time.Second, tick.Position)

	require.NoError(t, engine.SimulateProgress(10*time.Second))
	ev = <-engine.Events()
	assert.Equal(t, domain.EventTrackEnded, ev.Type())
	assert.False(t, engine.IsPlaying())
}

func TestEmitHelpers(t *testing.T) {
	engine := NewEngine()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	engine.EmitTickAt(time.Second, at)
	engine.EmitError(errors.New("boom"))

	ev := <-engine.Events()
	assert.Equal(t, at, ev.Timestamp())

	ev = <-engine.Events()
	errEv, ok := ev.(domain.EngineErrorEvent)
	require.True(t, ok)
	assert.EqualError(t, errEv.Err, "boom")
}
