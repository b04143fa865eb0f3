// Package beep provides a PlaybackEngine backed by the gopxl/beep speaker.
package beep

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Defaults used when the configuration leaves a value unset.
const (
	DefaultSampleRate   = 44100
	DefaultTickInterval = 250 * time.Millisecond
)

const eventBufferSize = 64

// The speaker is process-wide and can be initialized once.
var (
	speakerOnce sync.Once
	speakerErr  error
)

// Engine is the beep implementation of the PlaybackEngine interface.
// One track is loaded at a time; it is queued on the speaker paused and
// started by Play.
//
// Thread-safety: This implementation is thread-safe via sync.Mutex. Speaker-owned
// values (ctrl, streamer) are only touched under speaker.Lock.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Configuration
	sampleRate   gobeep.SampleRate
	tickInterval time.Duration

	// Track state
	opened   bool
	streamer gobeep.StreamSeekCloser
	format   gobeep.Format
	ctrl     *gobeep.Ctrl
	duration time.Duration
	loadSeq  atomic.Uint64

	events chan domain.EngineEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewEngine creates a new beep engine from cfg.
func NewEngine(cfg ports.EngineConfig, logger *slog.Logger) *Engine {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Engine{
		logger:       logger.With(slog.String("engine", "beep")),
		sampleRate:   gobeep.SampleRate(rate),
		tickInterval: tick,
		events:       make(chan domain.EngineEvent, eventBufferSize),
	}
}

// Open initializes the speaker and starts position ticks.
func (e *Engine) Open(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opened {
		return domain.ErrAlreadyInitialized
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		return domain.NewAudioEngineError("open", "", "failed to initialize speaker", speakerErr)
	}

	e.opened = true
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.tickLoop(e.stop)

	e.logger.Info("audio engine opened",
		slog.Int("sample_rate", int(e.sampleRate)),
		slog.Duration("tick_interval", e.tickInterval))
	return nil
}

// Close stops playback and the tick goroutine. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if !e.opened {
		e.mu.Unlock()
		return nil
	}
	e.opened = false
	close(e.stop)
	e.unloadLocked()
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info("audio engine closed")
	return nil
}

// Load decodes track and queues it on the speaker, paused at position zero.
func (e *Engine) Load(ctx context.Context, track domain.Track) (time.Duration, error) {
	if track.Path == "" {
		return 0, domain.ErrInvalidFilePath
	}
	if !IsSupported(track.Path) {
		return 0, domain.NewAudioEngineError("load", track.Path, "unsupported format", domain.ErrUnsupportedFormat)
	}

	e.mu.Lock()
	opened := e.opened
	e.mu.Unlock()
	if !opened {
		return 0, domain.ErrNotInitialized
	}

	streamer, format, err := decodeFile(track.Path)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		streamer.Close()
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.opened {
		streamer.Close()
		return 0, domain.ErrNotInitialized
	}
	e.unloadLocked()

	// Resample if the track's sample rate differs from the speaker's
	var playStreamer gobeep.Streamer = streamer
	if format.SampleRate != e.sampleRate {
		playStreamer = gobeep.Resample(4, format.SampleRate, e.sampleRate, streamer)
	}

	seq := e.loadSeq.Add(1)
	e.streamer = streamer
	e.format = format
	e.ctrl = &gobeep.Ctrl{Streamer: playStreamer, Paused: true}
	e.duration = format.SampleRate.D(streamer.Len())

	speaker.Play(gobeep.Seq(e.ctrl, gobeep.Callback(func() {
		// Runs on the speaker goroutine; must not block.
		if e.loadSeq.Load() != seq {
			return
		}
		e.emit(domain.NewTrackEndedEvent())
	})))

	e.logger.Debug("track loaded",
		slog.String("path", track.Path),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("duration", e.duration))
	return e.duration, nil
}

// Play starts or resumes the loaded track.
func (e *Engine) Play() error {
	return e.setPaused("play", false)
}

// Pause pauses the loaded track.
func (e *Engine) Pause() error {
	return e.setPaused("pause", true)
}

// Seek moves the playback position of the loaded track.
func (e *Engine) Seek(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 || position > e.duration {
		return domain.NewAudioEngineError("seek", "", "position out of range", nil)
	}

	speaker.Lock()
	err := e.streamer.Seek(min(e.format.SampleRate.N(position), e.streamer.Len()))
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("seek", "", "failed to seek", err)
	}
	return nil
}

// Events returns the engine event stream.
func (e *Engine) Events() <-chan domain.EngineEvent {
	return e.events
}

func (e *Engine) setPaused(op string, paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return domain.ErrNoTrackLoaded
	}
	speaker.Lock()
	e.ctrl.Paused = paused
	speaker.Unlock()

	e.logger.Debug("playback state changed", slog.String("op", op))
	return nil
}

// unloadLocked must be called with e.mu held.
func (e *Engine) unloadLocked() {
	if e.streamer == nil {
		return
	}
	e.loadSeq.Add(1)
	speaker.Clear()
	if err := e.streamer.Close(); err != nil {
		e.logger.Warn("failed to close stream", slog.Any("error", err))
	}
	e.streamer = nil
	e.ctrl = nil
	e.duration = 0
}

func (e *Engine) tickLoop(stop <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if pos, ok := e.position(); ok {
				e.emit(domain.NewPositionTickEvent(pos))
			}
		}
	}
}

// position returns the elapsed time of a playing track.
func (e *Engine) position() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return 0, false
	}
	speaker.Lock()
	defer speaker.Unlock()
	if e.ctrl.Paused {
		return 0, false
	}
	return e.format.SampleRate.D(e.streamer.Position()), true
}

func (e *Engine) emit(event domain.EngineEvent) {
	select {
	case e.events <- event:
	default:
		e.logger.Warn("engine event dropped", slog.String("type", string(event.Type())))
	}
}

// Verify that Engine implements the interface
var _ ports.PlaybackEngine = (*Engine)(nil)
