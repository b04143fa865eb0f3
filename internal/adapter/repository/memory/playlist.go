package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

type playlistRecord struct {
	id         int64
	name       string
	image      string
	trackIDs   []int64
	createdAt  time.Time
	lastUsedAt time.Time
}

// PlaylistRepository implements ports.PlaylistRepository in memory.
// Playlist tracks are resolved through the library on read.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	library   ports.LibraryRepository
	playlists map[int64]*playlistRecord
	nextID    int64
	now       func() time.Time
	mu        sync.RWMutex
}

// NewPlaylistRepository creates a new playlist repository over library.
func NewPlaylistRepository(library ports.LibraryRepository) *PlaylistRepository {
	return &PlaylistRepository{
		library:   library,
		playlists: make(map[int64]*playlistRecord),
		nextID:    1,
		now:       time.Now,
	}
}

// Create persists a new empty playlist.
func (r *PlaylistRepository) Create(_ context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("name", name, "playlist name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	id := r.nextID
	r.nextID++
	r.playlists[id] = &playlistRecord{id: id, name: name, createdAt: now, lastUsedAt: now}
	return id, nil
}

// Get retrieves a playlist with its tracks.
func (r *PlaylistRepository) Get(ctx context.Context, id int64) (domain.Playlist, error) {
	r.mu.RLock()
	rec, ok := r.playlists[id]
	if !ok {
		r.mu.RUnlock()
		return domain.Playlist{}, domain.ErrPlaylistNotFound
	}
	p := domain.Playlist{ID: rec.id, Name: rec.name, Image: rec.image}
	ids := slices.Clone(rec.trackIDs)
	r.mu.RUnlock()

	for _, trackID := range ids {
		t, err := r.library.Track(ctx, trackID)
		if err != nil {
			return domain.Playlist{}, domain.NewRepositoryError("get", "playlist",
				fmt.Sprintf("failed to resolve track %d", trackID), err)
		}
		p.Items = append(p.Items, t)
	}
	return p, nil
}

// List retrieves all playlists, most recently used first.
func (r *PlaylistRepository) List(_ context.Context) ([]domain.PlaylistSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PlaylistSummary, 0, len(r.playlists))
	for _, rec := range r.playlists {
		out = append(out, domain.PlaylistSummary{
			ID:         rec.id,
			Name:       rec.name,
			Image:      rec.image,
			TrackCount: len(rec.trackIDs),
			CreatedAt:  rec.createdAt,
			LastUsedAt: rec.lastUsedAt,
		})
	}
	slices.SortFunc(out, func(a, b domain.PlaylistSummary) int {
		if c := b.LastUsedAt.Compare(a.LastUsedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// Rename changes the name of a playlist.
func (r *PlaylistRepository) Rename(_ context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", name, "playlist name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	rec.name = name
	return nil
}

// Delete removes a playlist by ID.
func (r *PlaylistRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playlists, id)
	return nil
}

// AddTracks appends tracks to a playlist, skipping tracks already present.
func (r *PlaylistRepository) AddTracks(ctx context.Context, id int64, trackIDs []int64) error {
	for _, trackID := range trackIDs {
		if _, err := r.library.Track(ctx, trackID); err != nil {
			return domain.NewRepositoryError("add_tracks", "playlist",
				fmt.Sprintf("unknown track %d", trackID), err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	for _, trackID := range lo.Uniq(trackIDs) {
		if !slices.Contains(rec.trackIDs, trackID) {
			rec.trackIDs = append(rec.trackIDs, trackID)
		}
	}
	rec.lastUsedAt = r.now()
	return nil
}

// RemoveTrack removes a track from a playlist.
func (r *PlaylistRepository) RemoveTrack(_ context.Context, id int64, trackID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.playlists[id]
	if !ok {
		return domain.ErrPlaylistNotFound
	}
	rec.trackIDs = lo.Without(rec.trackIDs, trackID)
	return nil
}

// Verify that PlaylistRepository implements the interface
var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
