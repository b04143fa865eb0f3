// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunedeck/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/tunedeck/internal/config"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for the CLI
type Application struct {
	// Core dependencies
	logger *slog.Logger
	config *config.Config

	// Infrastructure
	eventBus ports.EventBus
	engine   ports.PlaybackEngine
	closers  []io.Closer

	// Repositories
	library       ports.LibraryRepository
	libraryWriter ports.LibraryWriter
	playlists     ports.PlaylistRepository
	preferences   ports.PreferencesRepository

	// Services
	scanner    *service.LibraryService
	resolver   *service.QueueResolver
	controller *service.PlaybackController

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option customizes NewApplication.
type Option func(*options)

type options struct {
	engine    ports.PlaybackEngine
	metadata  ports.MetadataReader
	logOutput io.Writer
}

// WithEngine replaces the engine selected by the configuration (for testing).
func WithEngine(engine ports.PlaybackEngine) Option {
	return func(o *options) { o.engine = engine }
}

// WithMetadataReader replaces the reader used to scan audio files (for testing).
func WithMetadataReader(reader ports.MetadataReader) Option {
	return func(o *options) { o.metadata = reader }
}

// WithLogOutput sends log output to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// NewApplication creates a new application with all dependencies wired.
// The playback controller is created but not connected; call Start.
func NewApplication(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{config: cfg}

	// Step 1: Create logger
	loggerCfg := cfg.LoggerConfig()
	loggerCfg.Output = o.logOutput
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().Version),
		slog.String("engine", cfg.Engine.Kind),
		slog.String("storage", cfg.Storage.Driver))

	// Step 2: Create an event bus
	syncBus := eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))
	eventbus.LogNotifications(syncBus, app.logger.With(slog.String("component", "notifications")))
	app.eventBus = syncBus
	app.closers = append(app.closers, syncBus)

	// Step 3: Create an audio engine
	switch {
	case o.engine != nil:
		app.engine = o.engine
	case cfg.Engine.Kind == config.EngineMock:
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.engine = engine
	default:
		app.engine = beep.NewEngine(cfg.EngineConfig(), app.logger)
	}

	// Step 4: Create repositories
	if err := app.openStorage(); err != nil {
		app.closeAll()
		return nil, err
	}

	// Step 5: Create services (with dependency injection)
	var metadata ports.MetadataReader = beep.MetadataReader{}
	if o.metadata != nil {
		metadata = o.metadata
	}
	app.scanner = service.NewLibraryService(
		app.logger.With(slog.String("service", "library")),
		metadata,
		app.libraryWriter,
	)

	app.resolver = service.NewQueueResolver(
		app.library,
		app.playlists,
		app.logger.With(slog.String("service", "resolver")),
	)

	app.controller = service.NewPlaybackController(
		ctx,
		app.logger.With(slog.String("service", "playback")),
		app.engine,
		app.eventBus,
		service.WithStrictInvariants(cfg.Playback.StrictInvariants),
		service.WithRepeat(app.loadRepeat(ctx)),
	)

	// Step 6: Persist preference changes as they happen
	eventbus.On(app.eventBus, func(e domain.RepeatChangedEvent) {
		if err := app.preferences.SaveRepeatState(context.Background(), e.Repeat); err != nil {
			app.logger.Warn("failed to save repeat state", slog.Any("error", err))
		}
	})

	return app, nil
}

func (a *Application) openStorage() error {
	if a.config.Storage.Driver == config.StorageMemory {
		lib := memory.NewLibrary()
		a.library = lib
		a.libraryWriter = lib
		a.playlists = memory.NewPlaylistRepository(lib)
		a.preferences = memory.NewPreferencesRepository()
		return nil
	}

	store, err := sqlite.Open(a.config.Storage.Path, a.logger.With(slog.String("component", "sqlite")))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.closers = append(a.closers, store)
	a.library = store
	a.libraryWriter = store
	a.playlists = store
	a.preferences = store
	return nil
}

// loadRepeat restores the saved repeat mode. The configured mode applies when none was saved.
func (a *Application) loadRepeat(ctx context.Context) domain.RepeatState {
	repeat, saved, err := a.preferences.LoadRepeatState(ctx)
	if err != nil {
		// Non-fatal - just log and continue
		a.logger.Warn("failed to load repeat state", slog.Any("error", err))
		return a.config.RepeatState()
	}
	if !saved {
		return a.config.RepeatState()
	}
	return repeat
}

// Start connects the playback controller and waits until it is available.
func (a *Application) Start(ctx context.Context) error {
	sub := a.controller.Subscribe()
	defer sub.Close()

	// Drop the replayed state so the next values are caused by Connect
	<-sub.Updates

	if err := a.controller.Connect(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Done:
			return domain.ErrReleased
		case state := <-sub.Updates:
			switch state.(type) {
			case domain.Available:
				a.logger.Info("tunedeck started")
				return nil
			case domain.Unavailable:
				return fmt.Errorf("failed to connect audio engine: %w", domain.ErrNotAvailable)
			}
		}
	}
}

// Play resolves items and replaces the queue with them.
func (a *Application) Play(ctx context.Context, items ...domain.QueueItemParameter) error {
	entries, err := a.resolver.Resolve(ctx, items)
	if err != nil {
		return err
	}
	return a.controller.PlayQueue(entries)
}

// Enqueue resolves items and appends them to the queue.
func (a *Application) Enqueue(ctx context.Context, items ...domain.QueueItemParameter) error {
	entries, err := a.resolver.Resolve(ctx, items)
	if err != nil {
		return err
	}
	return a.controller.AddToQueue(entries)
}

// NewAddToPlaylist opens an add-to-playlist flow for item. dismiss runs once the flow closes.
func (a *Application) NewAddToPlaylist(item domain.QueueItemParameter, dismiss func()) *service.AddToPlaylistCoordinator {
	return service.NewAddToPlaylistCoordinator(
		a.playlists,
		a.resolver,
		a.eventBus,
		a.logger.With(slog.String("service", "add_to_playlist")),
		item,
		dismiss,
	)
}

// Shutdown gracefully shuts down the application. It is safe to call more than once.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Save the current state
		if avail, ok := a.controller.State().(domain.Available); ok {
			if err := a.preferences.SaveRepeatState(context.Background(), avail.Snapshot.Repeat); err != nil {
				a.logger.Warn("failed to save state", slog.Any("error", err))
			}
		}

		if err := a.scanner.Shutdown(); err != nil {
			a.logger.Warn("failed to stop library scan", slog.Any("error", err))
		}

		// Release closes the engine
		a.controller.Release()
		a.shutdownErr = a.closeAll()

		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// closeAll closes infrastructure in reverse order of creation.
func (a *Application) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close component", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Controller returns the playback controller.
func (a *Application) Controller() *service.PlaybackController {
	return a.controller
}

// Scanner returns the service that registers audio files in the library.
func (a *Application) Scanner() *service.LibraryService {
	return a.scanner
}

// Resolver returns the queue resolver.
func (a *Application) Resolver() *service.QueueResolver {
	return a.resolver
}

// Playlists returns the playlist repository.
func (a *Application) Playlists() ports.PlaylistRepository {
	return a.playlists
}

// Library returns the library repository.
func (a *Application) Library() ports.LibraryRepository {
	return a.library
}

// LibraryWriter returns the writer used to register tracks.
func (a *Application) LibraryWriter() ports.LibraryWriter {
	return a.libraryWriter
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}
