// Package domain defines events for the event-driven architecture.
// Engine events flow into the playback controller; notification events flow out over the event bus.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Engine events (reported by the PlaybackEngine)
	EventPositionTick EventType = "engine.position_tick"
	EventTrackEnded   EventType = "engine.track_ended"
	EventEngineError  EventType = "engine.error"

	// Playback notifications (published by the controller)
	EventTrackLoaded     EventType = "track.loaded"
	EventTrackError      EventType = "track.error"
	EventPlaybackStarted EventType = "playback.started"
	EventPlaybackPaused  EventType = "playback.paused"
	EventRepeatChanged   EventType = "repeat.changed"

	// Queue notifications
	EventQueueReplaced EventType = "queue.replaced"
	EventQueueAppended EventType = "queue.appended"
	EventQueueFinished EventType = "queue.finished"

	// Playlist notifications
	EventPlaylistItemAdded EventType = "playlist.item_added"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// EngineEvent is an event reported by the playback engine.
// The set of implementations is closed: PositionTickEvent, TrackEndedEvent and EngineErrorEvent.
type EngineEvent interface {
	Event
	isEngineEvent()
}

// PositionTickEvent reports the engine playback position.
type PositionTickEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PositionTickEvent) Type() EventType {
	return EventPositionTick
}

func (PositionTickEvent) isEngineEvent() {}

// NewPositionTickEvent creates a new PositionTickEvent stamped with the current time.
func NewPositionTickEvent(position time.Duration) PositionTickEvent {
	return PositionTickEvent{baseEvent: newBaseEvent(), Position: position}
}

// NewPositionTickEventAt creates a PositionTickEvent with an explicit sampling time.
func NewPositionTickEventAt(position time.Duration, at time.Time) PositionTickEvent {
	return PositionTickEvent{baseEvent: baseEvent{timestamp: at}, Position: position}
}

// TrackEndedEvent reports that the loaded track played to its end.
type TrackEndedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

func (TrackEndedEvent) isEngineEvent() {}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent() TrackEndedEvent {
	return TrackEndedEvent{baseEvent: newBaseEvent()}
}

// EngineErrorEvent reports an asynchronous engine failure during playback.
type EngineErrorEvent struct {
	baseEvent
	Err error
}

// Type returns the event type.
func (e EngineErrorEvent) Type() EventType {
	return EventEngineError
}

func (EngineErrorEvent) isEngineEvent() {}

// NewEngineErrorEvent creates a new EngineErrorEvent.
func NewEngineErrorEvent(err error) EngineErrorEvent {
	return EngineErrorEvent{baseEvent: newBaseEvent(), Err: err}
}

// TrackLoadedEvent is published when the engine acknowledged a track load.
type TrackLoadedEvent struct {
	baseEvent
	Track    Track
	Position Position
	Duration time.Duration
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, pos Position, duration time.Duration) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  pos,
		Duration:  duration,
	}
}

// TrackErrorEvent is published when an error occurs with a track.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// PlaybackStartedEvent is published when playback starts or resumes.
type PlaybackStartedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e PlaybackStartedEvent) Type() EventType {
	return EventPlaybackStarted
}

// NewPlaybackStartedEvent creates a new PlaybackStartedEvent.
func NewPlaybackStartedEvent(track Track) PlaybackStartedEvent {
	return PlaybackStartedEvent{baseEvent: newBaseEvent(), Track: track}
}

// PlaybackPausedEvent is published when playback is paused.
type PlaybackPausedEvent struct {
	baseEvent
	Track   Track
	Elapsed time.Duration
}

// Type returns the event type.
func (e PlaybackPausedEvent) Type() EventType {
	return EventPlaybackPaused
}

// NewPlaybackPausedEvent creates a new PlaybackPausedEvent.
func NewPlaybackPausedEvent(track Track, elapsed time.Duration) PlaybackPausedEvent {
	return PlaybackPausedEvent{baseEvent: newBaseEvent(), Track: track, Elapsed: elapsed}
}

// RepeatChangedEvent is published when the repeat state changes.
type RepeatChangedEvent struct {
	baseEvent
	Repeat RepeatState
}

// Type returns the event type.
func (e RepeatChangedEvent) Type() EventType {
	return EventRepeatChanged
}

// NewRepeatChangedEvent creates a new RepeatChangedEvent.
func NewRepeatChangedEvent(repeat RepeatState) RepeatChangedEvent {
	return RepeatChangedEvent{baseEvent: newBaseEvent(), Repeat: repeat}
}

// QueueReplacedEvent is published when a new queue replaces the old one.
type QueueReplacedEvent struct {
	baseEvent
	Entries int
}

// Type returns the event type.
func (e QueueReplacedEvent) Type() EventType {
	return EventQueueReplaced
}

// NewQueueReplacedEvent creates a new QueueReplacedEvent.
func NewQueueReplacedEvent(entries int) QueueReplacedEvent {
	return QueueReplacedEvent{baseEvent: newBaseEvent(), Entries: entries}
}

// QueueAppendedEvent is published when entries are appended to the queue.
type QueueAppendedEvent struct {
	baseEvent
	Added int
	Total int
}

// Type returns the event type.
func (e QueueAppendedEvent) Type() EventType {
	return EventQueueAppended
}

// NewQueueAppendedEvent creates a new QueueAppendedEvent.
func NewQueueAppendedEvent(added, total int) QueueAppendedEvent {
	return QueueAppendedEvent{baseEvent: newBaseEvent(), Added: added, Total: total}
}

// QueueFinishedEvent is published when playback runs past the end of the queue.
type QueueFinishedEvent struct {
	baseEvent
	Position Position
}

// Type returns the event type.
func (e QueueFinishedEvent) Type() EventType {
	return EventQueueFinished
}

// NewQueueFinishedEvent creates a new QueueFinishedEvent.
func NewQueueFinishedEvent(pos Position) QueueFinishedEvent {
	return QueueFinishedEvent{baseEvent: newBaseEvent(), Position: pos}
}

// PlaylistItemAddedEvent is published when an item was associated with a playlist.
type PlaylistItemAddedEvent struct {
	baseEvent
	PlaylistID int64
	Item       QueueItemParameter
	Tracks     int
}

// Type returns the event type.
func (e PlaylistItemAddedEvent) Type() EventType {
	return EventPlaylistItemAdded
}

// NewPlaylistItemAddedEvent creates a new PlaylistItemAddedEvent.
func NewPlaylistItemAddedEvent(playlistID int64, item QueueItemParameter, tracks int) PlaylistItemAddedEvent {
	return PlaylistItemAddedEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: playlistID,
		Item:       item,
		Tracks:     tracks,
	}
}
