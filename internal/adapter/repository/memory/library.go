// Package memory provides in-memory repository implementations.
// They back the "memory" storage driver and the service tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

type albumRecord struct {
	id       int64
	name     string
	image    string
	trackIDs []int64
}

type folderRecord struct {
	folder   domain.Folder
	children []int64
	trackIDs []int64
}

// Library implements ports.LibraryRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Library struct {
	tracks  map[int64]domain.Track
	albums  map[int64]*albumRecord
	folders map[int64]*folderRecord
	lastID  int64
	mu      sync.RWMutex
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		tracks:  make(map[int64]domain.Track),
		albums:  make(map[int64]*albumRecord),
		folders: make(map[int64]*folderRecord),
	}
}

// AddTrack stores or replaces a track.
func (l *Library) AddTrack(track domain.Track) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks[track.ID] = track
	l.lastID = max(l.lastID, track.ID)
}

// SaveTrack stores track, reusing the ID of a stored track with the same path.
func (l *Library) SaveTrack(_ context.Context, track domain.Track) (domain.Track, error) {
	if track.Path == "" {
		return domain.Track{}, domain.NewValidationError("path", track.Path, "track path is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, found := lo.FindKeyBy(l.tracks, func(_ int64, t domain.Track) bool {
		return t.Path == track.Path
	})
	switch {
	case found:
		track.ID = existing
	case track.ID == 0:
		l.lastID++
		track.ID = l.lastID
	}
	l.tracks[track.ID] = track
	l.lastID = max(l.lastID, track.ID)
	return track, nil
}

// AddAlbum stores an album and its tracks. Tracks keep the album order.
func (l *Library) AddAlbum(album domain.Album) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ref := &domain.AlbumRef{ID: album.ID, Name: album.Name}
	for _, t := range album.Items {
		t.Album = ref
		l.tracks[t.ID] = t
		l.lastID = max(l.lastID, t.ID)
	}
	l.albums[album.ID] = &albumRecord{
		id:    album.ID,
		name:  album.Name,
		image: album.Image,
		trackIDs: lo.Map(album.Items, func(t domain.Track, _ int) int64 {
			return t.ID
		}),
	}
}

// AddFolder stores a folder holding trackIDs and links it below its parent, if any.
func (l *Library) AddFolder(folder domain.Folder, trackIDs ...int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.folders[folder.ID] = &folderRecord{folder: folder, trackIDs: slices.Clone(trackIDs)}
	if folder.ParentID != nil {
		if parent, ok := l.folders[*folder.ParentID]; ok {
			parent.children = append(parent.children, folder.ID)
		}
	}
}

// LinkFolder adds childID as an extra child of parentID.
func (l *Library) LinkFolder(parentID, childID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if parent, ok := l.folders[parentID]; ok {
		parent.children = append(parent.children, childID)
	}
}

// Track retrieves a track by ID.
func (l *Library) Track(_ context.Context, id int64) (domain.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tracks[id]
	if !ok {
		return domain.Track{}, domain.ErrTrackNotFound
	}
	return t, nil
}

// Album retrieves an album with its tracks.
func (l *Library) Album(_ context.Context, id int64) (domain.Album, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.albums[id]
	if !ok {
		return domain.Album{}, domain.ErrAlbumNotFound
	}
	return domain.Album{
		ID:    rec.id,
		Name:  rec.name,
		Image: rec.image,
		Items: l.lookup(rec.trackIDs),
	}, nil
}

// FolderContents retrieves the child folders and tracks of a folder.
func (l *Library) FolderContents(_ context.Context, id int64) ([]domain.Folder, []domain.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.folders[id]
	if !ok {
		return nil, nil, domain.ErrFolderNotFound
	}

	children := lo.FilterMap(rec.children, func(childID int64, _ int) (domain.Folder, bool) {
		child, ok := l.folders[childID]
		if !ok {
			return domain.Folder{}, false
		}
		return child.folder, true
	})
	return children, l.lookup(rec.trackIDs), nil
}

// lookup must be called with l.mu held. Unknown ids are skipped.
func (l *Library) lookup(ids []int64) []domain.Track {
	return lo.FilterMap(ids, func(id int64, _ int) (domain.Track, bool) {
		t, ok := l.tracks[id]
		return t, ok
	})
}

// Verify that Library implements the interfaces
var (
	_ ports.LibraryRepository = (*Library)(nil)
	_ ports.LibraryWriter     = (*Library)(nil)
)
