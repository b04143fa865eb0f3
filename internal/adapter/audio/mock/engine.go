// Package mock provides a mock implementation of the PlaybackEngine interface.
// This is used for testing the playback controller without an audio device.
package mock

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// DefaultDuration is reported for tracks that carry no duration of their own.
const DefaultDuration = 3 * time.Minute

const eventBufferSize = 64

// Engine is a mock implementation of the PlaybackEngine interface.
// It simulates playback in memory without producing audio.
//
// By default Load acknowledges immediately. With SetManualAck(true) every Load blocks
// until the test calls AckLoad or FailLoad, which makes in-flight transitions observable.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Track state
	opened   bool
	loaded   *domain.Track
	duration time.Duration
	position time.Duration
	playing  bool

	// History (for assertions)
	loads []domain.Track
	seeks []time.Duration

	events chan domain.EngineEvent
	acks   chan error
	mu     sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	manualAck bool
	failOpen  bool
	failLoad  bool
	failPlay  bool
}

// NewEngine creates a new mock playback engine.
func NewEngine() *Engine {
	return &Engine{
		events: make(chan domain.EngineEvent, eventBufferSize),
		acks:   make(chan error),
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetManualAck configures Load to wait for AckLoad or FailLoad (for testing).
func (m *Engine) SetManualAck(manual bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manualAck = manual
}

// SetFailOpen configures the mock to fail Open (for testing).
func (m *Engine) SetFailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = fail
}

// SetFailLoad configures the mock to fail loading tracks (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Open attaches the mock engine.
func (m *Engine) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOpen {
		return domain.NewAudioEngineError("open", "", "mock open failed", nil)
	}
	if m.opened {
		return domain.ErrAlreadyInitialized
	}

	m.opened = true
	m.debug("engine opened")
	return nil
}

// Close detaches the mock engine. Closing an engine that is not open is a no-op.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = false
	m.loaded = nil
	m.playing = false
	m.position = 0
	return nil
}

// IsOpen returns true between Open and Close.
func (m *Engine) IsOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opened
}

// Load records the request and replaces the loaded track once acknowledged.
func (m *Engine) Load(ctx context.Context, track domain.Track) (time.Duration, error) {
	m.mu.Lock()
	if !m.opened {
		m.mu.Unlock()
		return 0, domain.ErrNotInitialized
	}
	m.loads = append(m.loads, track)
	manual := m.manualAck
	fail := m.failLoad
	m.mu.Unlock()

	if manual {
		select {
		case err := <-m.acks:
			if err != nil {
				return 0, err
			}
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	if fail {
		return 0, domain.NewAudioEngineError("load", track.Path, "mock load failed", domain.ErrUnsupportedFormat)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	duration := track.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	loaded := track
	m.loaded = &loaded
	m.duration = duration
	m.position = 0
	m.playing = false
	m.debug("track loaded", slog.Int64("track_id", track.ID))
	return duration, nil
}

// AckLoad completes the oldest pending Load successfully. It blocks until a Load is waiting.
func (m *Engine) AckLoad() {
	m.acks <- nil
}

// FailLoad completes the oldest pending Load with err. It blocks until a Load is waiting.
func (m *Engine) FailLoad(err error) {
	m.acks <- err
}

// Play starts playback of the loaded track.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded == nil {
		return domain.ErrNoTrackLoaded
	}
	if m.failPlay {
		return domain.NewAudioEngineError("play", m.loaded.Path, "mock play failed", domain.ErrPlaybackFailed)
	}
	m.playing = true
	return nil
}

// Pause pauses playback of the loaded track.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded == nil {
		return domain.ErrNoTrackLoaded
	}
	m.playing = false
	return nil
}

// Seek moves the position of the loaded track.
func (m *Engine) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded == nil {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 || position > m.duration {
		return domain.NewValidationError("position", position, "out of range")
	}
	m.position = position
	m.seeks = append(m.seeks, position)
	return nil
}

// Events returns the engine event stream.
func (m *Engine) Events() <-chan domain.EngineEvent {
	return m.events
}

// Test helper methods

// Loads returns every track passed to Load, in call order.
func (m *Engine) Loads() []domain.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.loads)
}

// LoadCount returns the number of Load calls.
func (m *Engine) LoadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loads)
}

// Seeks returns every accepted seek position, in call order.
func (m *Engine) Seeks() []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.seeks)
}

// Loaded returns the currently loaded track.
func (m *Engine) Loaded() (domain.Track, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loaded == nil {
		return domain.Track{}, false
	}
	return *m.loaded, true
}

// IsPlaying returns true while the loaded track is playing.
func (m *Engine) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// Position returns the simulated position of the loaded track.
func (m *Engine) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// SimulateProgress advances the loaded track by delta and emits a position tick.
// When the end of the track is reached it emits a track ended event instead.
func (m *Engine) SimulateProgress(delta time.Duration) error {
	m.mu.Lock()
	if m.loaded == nil {
		m.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	m.position += delta
	ended := m.position >= m.duration
	if ended {
		m.position = m.duration
		m.playing = false
	}
	position := m.position
	m.mu.Unlock()

	if ended {
		m.EmitTrackEnded()
		return nil
	}
	m.EmitTick(position)
	return nil
}

// EmitTick reports a position tick sampled now.
func (m *Engine) EmitTick(position time.Duration) {
	m.events <- domain.NewPositionTickEvent(position)
}

// EmitTickAt reports a position tick sampled at the given time.
func (m *Engine) EmitTickAt(position time.Duration, at time.Time) {
	m.events <- domain.NewPositionTickEventAt(position, at)
}

// EmitTrackEnded reports that the loaded track finished.
func (m *Engine) EmitTrackEnded() {
	m.events <- domain.NewTrackEndedEvent()
}

// EmitError reports an asynchronous engine failure.
func (m *Engine) EmitError(err error) {
	m.events <- domain.NewEngineErrorEvent(err)
}

func (m *Engine) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

// Verify that Engine implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Engine)(nil)
