// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// LibraryRepository provides read access to the music library.
// It is used to resolve QueueItemParameter references into queue entries.
//
// Thread-safety: Implementations must be thread-safe.
type LibraryRepository interface {
	// Track retrieves a track by ID.
	// If the track doesn't exist, returns domain.ErrTrackNotFound.
	Track(ctx context.Context, id int64) (domain.Track, error)

	// Album retrieves an album with its tracks in album order.
	// If the album doesn't exist, returns domain.ErrAlbumNotFound.
	Album(ctx context.Context, id int64) (domain.Album, error)

	// FolderContents retrieves the direct child folders and tracks of a folder.
	// Both slices are in display order.
	// If the folder doesn't exist, returns domain.ErrFolderNotFound.
	FolderContents(ctx context.Context, id int64) ([]domain.Folder, []domain.Track, error)
}

// LibraryWriter registers tracks discovered outside the library, such as files passed on the command line.
type LibraryWriter interface {
	// SaveTrack stores track, matching an existing track by path.
	// Returns the stored track with its ID assigned.
	SaveTrack(ctx context.Context, track domain.Track) (domain.Track, error)
}

// PlaylistRepository handles the persistence of playlists.
// Implementations can use databases or in-memory storage.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// Create persists a new empty playlist.
	//
	// Returns the new playlist ID, or an error if saving fails.
	Create(ctx context.Context, name string) (int64, error)

	// Get retrieves a playlist with its tracks in playlist order.
	// If the playlist doesn't exist, returns domain.ErrPlaylistNotFound.
	Get(ctx context.Context, id int64) (domain.Playlist, error)

	// List retrieves all playlists, most recently used first.
	//
	// Returns an empty slice (not an error) if none exist.
	List(ctx context.Context) ([]domain.PlaylistSummary, error)

	// Rename changes the name of a playlist.
	Rename(ctx context.Context, id int64, name string) error

	// Delete removes a playlist by ID.
	// If the playlist doesn't exist, this is a no-op (no error).
	Delete(ctx context.Context, id int64) error

	// AddTracks appends tracks to a playlist and marks it as used.
	// Tracks already in the playlist are skipped.
	AddTracks(ctx context.Context, id int64, trackIDs []int64) error

	// RemoveTrack removes a track from a playlist.
	RemoveTrack(ctx context.Context, id int64, trackID int64) error
}

// PreferencesRepository handles the persistence of user preferences.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveRepeatState persists the repeat mode.
	SaveRepeatState(ctx context.Context, repeat domain.RepeatState) error

	// LoadRepeatState retrieves the saved repeat mode. saved is false when
	// nothing was ever stored, which is distinct from a stored RepeatOff.
	LoadRepeatState(ctx context.Context) (repeat domain.RepeatState, saved bool, err error)
}
