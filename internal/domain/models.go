// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunedeck playback queue.
package domain

import (
	"slices"
	"time"
)

// AlbumRef is a lightweight pointer to the album a track belongs to.
type AlbumRef struct {
	ID   int64
	Name string
}

// ArtistRef is a lightweight pointer to a performing artist.
type ArtistRef struct {
	ID   int64
	Name string
}

// QueueEntry is one slot in the playback queue.
// The set of implementations is closed: Track, Album and Playlist.
type QueueEntry interface {
	// EntryID returns the library identifier of the entry.
	EntryID() int64

	// EntryName returns the display name of the entry.
	EntryName() string

	isQueueEntry()
}

// Group is a queue entry that expands into an ordered list of tracks.
type Group interface {
	QueueEntry

	// Tracks returns the tracks of the group in playback order.
	Tracks() []Track
}

// Track is a single playable item. It is the leaf of the queue structure.
type Track struct {
	// ID is the library identifier of the track
	ID int64

	// Name is the track title
	Name string

	// Path is the location the engine loads the audio from
	Path string

	// Duration is the total length of the track
	Duration time.Duration

	// Album is the album the track belongs to (nil if unknown)
	Album *AlbumRef

	// Artists are the performing artists in credit order
	Artists []ArtistRef
}

// EntryID returns the track id.
func (t Track) EntryID() int64 { return t.ID }

// EntryName returns the track name.
func (t Track) EntryName() string { return t.Name }

func (Track) isQueueEntry() {}

// Album is a group of tracks resolved once when the queue is built.
type Album struct {
	ID    int64
	Name  string
	Image string
	Items []Track
}

// EntryID returns the album id.
func (a Album) EntryID() int64 { return a.ID }

// EntryName returns the album name.
func (a Album) EntryName() string { return a.Name }

// Tracks returns the album tracks.
func (a Album) Tracks() []Track { return a.Items }

func (Album) isQueueEntry() {}

// Playlist has the same shape as Album but is a user-curated collection.
type Playlist struct {
	ID    int64
	Name  string
	Image string
	Items []Track
}

// EntryID returns the playlist id.
func (p Playlist) EntryID() int64 { return p.ID }

// EntryName returns the playlist name.
func (p Playlist) EntryName() string { return p.Name }

// Tracks returns the playlist tracks.
func (p Playlist) Tracks() []Track { return p.Items }

func (Playlist) isQueueEntry() {}

// FreezeEntries returns a copy of entries whose group items no longer share
// backing arrays with the caller. Queued entries are snapshots: later edits of
// the source album or playlist must not leak into a queue that is playing.
func FreezeEntries(entries []QueueEntry) []QueueEntry {
	frozen := make([]QueueEntry, len(entries))
	for i, e := range entries {
		switch v := e.(type) {
		case Track:
			v.Artists = slices.Clone(v.Artists)
			frozen[i] = v
		case Album:
			v.Items = slices.Clone(v.Items)
			frozen[i] = v
		case Playlist:
			v.Items = slices.Clone(v.Items)
			frozen[i] = v
		default:
			frozen[i] = e
		}
	}
	return frozen
}

// NoSub marks a Position that points at a standalone Track entry.
const NoSub = -1

// Position points into the queue, and into a group's items when the entry is a group.
type Position struct {
	// Entry is the index of the top-level queue entry
	Entry int

	// Sub is the index inside the group items, or NoSub for a Track entry
	Sub int
}

// TrackPosition returns a position for a standalone track entry.
func TrackPosition(entry int) Position {
	return Position{Entry: entry, Sub: NoSub}
}

// GroupPosition returns a position for an item inside a group entry.
func GroupPosition(entry, sub int) Position {
	return Position{Entry: entry, Sub: sub}
}

// HasSub reports whether the position points inside a group.
func (p Position) HasSub() bool {
	return p.Sub != NoSub
}

// RepeatState controls what happens when the queue is exhausted.
type RepeatState int

const (
	// RepeatOff stops playback at the end of the queue
	RepeatOff RepeatState = iota

	// RepeatTrack replays the current track
	RepeatTrack

	// RepeatList wraps to the start of the queue
	RepeatList
)

// String returns a human-readable representation of the repeat state.
func (r RepeatState) String() string {
	switch r {
	case RepeatOff:
		return "off"
	case RepeatTrack:
		return "track"
	case RepeatList:
		return "list"
	default:
		return "unknown"
	}
}

// Next returns the state that follows r in the Off, Track, List cycle.
func (r RepeatState) Next() RepeatState {
	switch r {
	case RepeatOff:
		return RepeatTrack
	case RepeatTrack:
		return RepeatList
	default:
		return RepeatOff
	}
}

// ParseRepeatState converts a string to a RepeatState.
func ParseRepeatState(s string) (RepeatState, error) {
	switch s {
	case "off", "":
		return RepeatOff, nil
	case "track":
		return RepeatTrack, nil
	case "list":
		return RepeatList, nil
	default:
		return RepeatOff, NewValidationError("repeat", s, "must be one of off, track, list")
	}
}

// PlaybackSnapshot is the immutable published view of the complete playback state.
// A published snapshot is never modified; the controller builds a new value for every change.
type PlaybackSnapshot struct {
	// Queue is the ordered queue content (read-only)
	Queue []QueueEntry

	// Position is the current position (meaningless when Queue has no playable track)
	Position Position

	// IsPlaying is true while the engine is expected to produce audio
	IsPlaying bool

	// Elapsed is the playback position inside the current track
	Elapsed time.Duration

	// Duration is the length of the current track
	Duration time.Duration

	// Repeat is the active repeat state
	Repeat RepeatState

	// Enabled is false while a transition is in flight; controls must disable themselves
	Enabled bool

	// Err is the sticky error of the last failed engine operation, cleared by DismissError
	Err error

	// Generation increases by one with every published snapshot
	Generation uint64
}

// HasQueue reports whether the snapshot carries any queue entries.
func (s PlaybackSnapshot) HasQueue() bool {
	return len(s.Queue) > 0
}

// ControllerStatus identifies the variant of a PlayerState.
type ControllerStatus int

const (
	// StatusUnavailable means no engine session exists
	StatusUnavailable ControllerStatus = iota

	// StatusLoading means the engine is attaching
	StatusLoading

	// StatusAvailable means the controller operates normally
	StatusAvailable
)

// String returns a human-readable representation of the controller status.
func (s ControllerStatus) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusLoading:
		return "loading"
	case StatusAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// PlayerState is the value published to UI observers.
// The set of implementations is closed: Unavailable, Loading and Available.
type PlayerState interface {
	Status() ControllerStatus
	isPlayerState()
}

// Unavailable is published before the engine is attached and after release.
type Unavailable struct{}

// Status returns StatusUnavailable.
func (Unavailable) Status() ControllerStatus { return StatusUnavailable }

func (Unavailable) isPlayerState() {}

// Loading is published while the engine attaches.
type Loading struct{}

// Status returns StatusLoading.
func (Loading) Status() ControllerStatus { return StatusLoading }

func (Loading) isPlayerState() {}

// Available carries the current playback snapshot.
type Available struct {
	Snapshot PlaybackSnapshot
}

// Status returns StatusAvailable.
func (Available) Status() ControllerStatus { return StatusAvailable }

func (Available) isPlayerState() {}

// ItemKind identifies what a QueueItemParameter refers to.
type ItemKind int

const (
	ItemTrack ItemKind = iota
	ItemAlbum
	ItemPlaylist
	ItemFolder
)

// String returns a human-readable representation of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemTrack:
		return "track"
	case ItemAlbum:
		return "album"
	case ItemPlaylist:
		return "playlist"
	case ItemFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// QueueItemParameter references a library item that callers resolve into queue entries.
type QueueItemParameter struct {
	Kind ItemKind
	ID   int64
}

// TrackItem references a track by id.
func TrackItem(id int64) QueueItemParameter { return QueueItemParameter{Kind: ItemTrack, ID: id} }

// AlbumItem references an album by id.
func AlbumItem(id int64) QueueItemParameter { return QueueItemParameter{Kind: ItemAlbum, ID: id} }

// PlaylistItem references a playlist by id.
func PlaylistItem(id int64) QueueItemParameter {
	return QueueItemParameter{Kind: ItemPlaylist, ID: id}
}

// FolderItem references a library folder by id.
func FolderItem(id int64) QueueItemParameter { return QueueItemParameter{Kind: ItemFolder, ID: id} }

// Folder is a node of the library folder hierarchy.
type Folder struct {
	ID       int64
	ParentID *int64
	Name     string
}

// PlaylistSummary is playlist metadata without its tracks.
type PlaylistSummary struct {
	ID         int64
	Name       string
	Image      string
	TrackCount int
	CreatedAt  time.Time
	LastUsedAt time.Time
}
