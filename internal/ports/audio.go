// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// PlaybackEngine is the interface for the platform media engine.
// It abstracts the underlying audio library (beep speaker) and allows for testing with mocks.
//
// An engine is exclusively owned by one PlaybackController. It holds at most one loaded
// track at a time and reports asynchronous progress through Events.
//
// Implementations must be thread-safe: Events is drained by the controller goroutine
// while commands may arrive from the same goroutine during a load.
type PlaybackEngine interface {
	// Lifecycle methods

	// Open attaches the engine to the output device.
	// It must be called once before Load.
	//
	// Returns an error if the device cannot be opened.
	Open(ctx context.Context) error

	// Close detaches the engine and stops any playback.
	// After Close, the Events channel receives no further events.
	//
	// Returns an error if shutdown fails.
	Close() error

	// Track loading methods

	// Load replaces the loaded track with track, paused at position zero.
	// It blocks until the engine acknowledges the load or ctx is cancelled.
	//
	// Returns the track duration reported by the engine, or an error if loading fails.
	Load(ctx context.Context, track domain.Track) (time.Duration, error)

	// Playback control methods

	// Play starts or resumes the loaded track.
	//
	// Returns domain.ErrNoTrackLoaded if nothing is loaded.
	Play() error

	// Pause pauses the loaded track, preserving its position.
	Pause() error

	// Seek moves the playback position of the loaded track.
	// The position must be within the valid range [0, Duration].
	Seek(position time.Duration) error

	// Event methods

	// Events returns the stream of engine events: position ticks, track completion and
	// asynchronous errors. The channel is owned by the engine and never closed while open.
	Events() <-chan domain.EngineEvent
}

// EngineConfig contains configuration for creating a playback engine.
type EngineConfig struct {
	// Kind selects the implementation ("beep" or "mock")
	Kind string

	// SampleRate is the output sample rate in Hz
	SampleRate int

	// TickInterval is the period of position tick events
	TickInterval time.Duration
}

// MetadataReader extracts track metadata from audio files on disk.
type MetadataReader interface {
	// IsSupported reports whether the file extension is a decodable format.
	IsSupported(path string) bool

	// ReadTrack builds an unregistered track (ID 0) from the file at path.
	ReadTrack(path string) (domain.Track, error)
}
