package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/config"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/testutil"
)

// testConfig returns a configuration using the mock engine and in-memory storage.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.Kind = config.EngineMock
	cfg.Storage.Driver = config.StorageMemory
	cfg.Playback.StrictInvariants = true
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config, engine *mock.Engine) *Application {
	t.Helper()

	app, err := NewApplication(context.Background(), cfg, WithEngine(engine), WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })
	return app
}

// current returns the snapshot without failing, for use inside Eventually.
func current(app *Application) domain.PlaybackSnapshot {
	avail, _ := app.Controller().State().(domain.Available)
	return avail.Snapshot
}

func snapshot(t *testing.T, app *Application) domain.PlaybackSnapshot {
	t.Helper()
	avail, ok := app.Controller().State().(domain.Available)
	require.True(t, ok, "expected Available, got %T", app.Controller().State())
	return avail.Snapshot
}

func TestApplicationLifecycle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine := mock.NewEngine()
	app, err := NewApplication(context.Background(), testConfig(), WithEngine(engine), WithLogOutput(io.Discard))
	require.NoError(t, err)

	require.NoError(t, app.Start(context.Background()))
	assert.True(t, engine.IsOpen())
	assert.Equal(t, domain.RepeatOff, snapshot(t, app).Repeat)

	require.NoError(t, app.Shutdown())
	assert.False(t, engine.IsOpen(), "shutdown closes the engine")
	assert.IsType(t, domain.Unavailable{}, app.Controller().State())

	// Shutdown again should not panic
	assert.NoError(t, app.Shutdown())
}

func TestApplicationStartFailure(t *testing.T) {
	engine := mock.NewEngine()
	engine.SetFailOpen(true)
	app := newTestApplication(t, testConfig(), engine)

	err := app.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestApplicationPlay(t *testing.T) {
	engine := mock.NewEngine()
	app := newTestApplication(t, testConfig(), engine)
	require.NoError(t, app.Start(context.Background()))
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a", "b"} {
		track, err := app.LibraryWriter().SaveTrack(ctx, domain.Track{Name: name, Path: "/music/" + name + ".mp3"})
		require.NoError(t, err)
		ids = append(ids, track.ID)
	}

	require.NoError(t, app.Play(ctx, domain.TrackItem(ids[0])))
	require.Eventually(t, func() bool { return engine.LoadCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, app.Enqueue(ctx, domain.TrackItem(ids[1])))
	require.Eventually(t, func() bool {
		return len(current(app).Queue) == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, engine.LoadCount(), "enqueue keeps the current track")

	err := app.Play(ctx, domain.AlbumItem(42))
	assert.ErrorIs(t, err, domain.ErrAlbumNotFound)
}

func TestApplicationRepeatPersists(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreDatabaseGoroutines()...)

	cfg := testConfig()
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "tunedeck.db")

	app, err := NewApplication(context.Background(), cfg, WithEngine(mock.NewEngine()), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, app.Controller().SetRepeat(domain.RepeatList))
	require.Eventually(t, func() bool {
		return current(app).Repeat == domain.RepeatList
	}, time.Second, time.Millisecond)
	require.NoError(t, app.Shutdown())

	app, err = NewApplication(context.Background(), cfg, WithEngine(mock.NewEngine()), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	assert.Equal(t, domain.RepeatList, snapshot(t, app).Repeat)
	require.NoError(t, app.Shutdown())
}

func TestApplicationConfiguredRepeat(t *testing.T) {
	cfg := testConfig()
	cfg.Playback.Repeat = "track"

	app := newTestApplication(t, cfg, mock.NewEngine())
	require.NoError(t, app.Start(context.Background()))
	assert.Equal(t, domain.RepeatTrack, snapshot(t, app).Repeat)
}

func TestApplicationSavedRepeatOffWinsOverConfig(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreDatabaseGoroutines()...)

	cfg := testConfig()
	cfg.Playback.Repeat = "track"
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "tunedeck.db")

	app, err := NewApplication(context.Background(), cfg, WithEngine(mock.NewEngine()), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	require.Equal(t, domain.RepeatTrack, snapshot(t, app).Repeat)
	require.NoError(t, app.Controller().SetRepeat(domain.RepeatOff))
	require.Eventually(t, func() bool {
		return current(app).Repeat == domain.RepeatOff
	}, time.Second, time.Millisecond)
	require.NoError(t, app.Shutdown())

	app, err = NewApplication(context.Background(), cfg, WithEngine(mock.NewEngine()), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	assert.Equal(t, domain.RepeatOff, snapshot(t, app).Repeat, "the saved mode beats the configured one")
	require.NoError(t, app.Shutdown())
}

func TestApplicationAddToPlaylist(t *testing.T) {
	app := newTestApplication(t, testConfig(), mock.NewEngine())
	ctx := context.Background()

	track, err := app.LibraryWriter().SaveTrack(ctx, domain.Track{Name: "a", Path: "/music/a.mp3"})
	require.NoError(t, err)

	var added []domain.PlaylistItemAddedEvent
	eventbus.On(app.EventBus(), func(e domain.PlaylistItemAddedEvent) {
		added = append(added, e)
	})

	dismissed := 0
	flow := app.NewAddToPlaylist(domain.TrackItem(track.ID), func() { dismissed++ })
	require.NoError(t, flow.AddToNew(ctx, "Favorites"))
	assert.Equal(t, 1, dismissed)
	require.Len(t, added, 1)

	list, err := app.Playlists().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].TrackCount)
}

type stubReader struct{}

func (stubReader) IsSupported(path string) bool { return filepath.Ext(path) == ".mp3" }

func (stubReader) ReadTrack(path string) (domain.Track, error) {
	return domain.Track{Name: filepath.Base(path), Path: path}, nil
}

func TestApplicationScanner(t *testing.T) {
	app, err := NewApplication(context.Background(), testConfig(),
		WithEngine(mock.NewEngine()), WithMetadataReader(stubReader{}), WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	dir := t.TempDir()
	for _, name := range []string{"one.mp3", "two.mp3", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	tracks, err := app.Scanner().ScanFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, app.Play(context.Background(), domain.TrackItem(tracks[1].ID)))
}

func TestVersionInfo(t *testing.T) {
	v := VersionInfo{Version: "1.2.0", GitCommit: "abc123", BuildTime: "today"}
	assert.Equal(t, "tunedeck 1.2.0 (commit: abc123, built: today)", v.FullString())

	v.GitTag = "v1.2.0"
	assert.Contains(t, v.FullString(), "v1.2.0")
}
