// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrEmptyQueue is returned when a queue without any playable track is submitted for playback.
	ErrEmptyQueue = errors.New("queue has no playable track")

	// ErrInvalidIndex is returned when a queue index is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrNotGroup is returned when a sub-entry is addressed on an entry that is not a group.
	ErrNotGroup = errors.New("queue entry is not a group")

	// ErrEmptyGroup is returned when a zero-length group is addressed directly.
	ErrEmptyGroup = errors.New("queue entry is an empty group")

	// ErrNotAvailable is returned when a command requires an attached engine.
	ErrNotAvailable = errors.New("playback controller is not available")

	// ErrReleased is returned when a command is issued after release.
	ErrReleased = errors.New("playback controller released")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrNoTrackLoaded is returned when playback is attempted with no track loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidFilePath is returned when a file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrTrackNotFound is returned when a requested track cannot be found.
	ErrTrackNotFound = errors.New("track not found")

	// ErrAlbumNotFound is returned when a requested album cannot be found.
	ErrAlbumNotFound = errors.New("album not found")

	// ErrPlaylistNotFound is returned when a requested playlist cannot be found.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrFolderNotFound is returned when a requested folder cannot be found.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrAddInFlight is returned when a playlist write is already running for the dialog.
	ErrAddInFlight = errors.New("playlist write already in flight")

	// ErrDialogClosed is returned when a selection is made on a dismissed dialog.
	ErrDialogClosed = errors.New("add to playlist dialog closed")

	// ErrScanCancelled is returned when a library scan is cancelled.
	ErrScanCancelled = errors.New("scan cancelled")

	// ErrScanInProgress is returned when a scan is started while another one runs.
	ErrScanInProgress = errors.New("scan already in progress")
)

// InvalidPositionError reports a Position that violates the queue invariant.
// It indicates a programming error in queue navigation.
type InvalidPositionError struct {
	Position Position
	QueueLen int
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid queue position (%d, %d) for queue of %d entries: %s",
		e.Position.Entry, e.Position.Sub, e.QueueLen, e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvalidPositionError) Unwrap() error {
	return e.Err
}

// NewInvalidPositionError creates a new InvalidPositionError.
func NewInvalidPositionError(pos Position, queueLen int, reason string, err error) *InvalidPositionError {
	return &InvalidPositionError{
		Position: pos,
		QueueLen: queueLen,
		Reason:   reason,
		Err:      err,
	}
}

// EngineLoadError reports that the engine could not load a track.
// It is recoverable: the controller stays usable and surfaces the error once.
type EngineLoadError struct {
	Track Track
	Err   error
}

// Error implements the error interface.
func (e *EngineLoadError) Error() string {
	return fmt.Sprintf("failed to load track %d (%s): %v", e.Track.ID, e.Track.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineLoadError) Unwrap() error {
	return e.Err
}

// NewEngineLoadError creates a new EngineLoadError.
func NewEngineLoadError(track Track, err error) *EngineLoadError {
	return &EngineLoadError{Track: track, Err: err}
}

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	Path    string // File path (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "create", "get", "delete")
	Type    string // Repository type (e.g., "playlist", "library", "preferences")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackController", "QueueResolver")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
