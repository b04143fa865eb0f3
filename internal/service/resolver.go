package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// QueueResolver turns library references into queue entries.
// Resolution happens before entries reach the PlaybackController, which never touches repositories.
type QueueResolver struct {
	// Dependencies (injected)
	library   ports.LibraryRepository
	playlists ports.PlaylistRepository
	logger    *slog.Logger
}

// NewQueueResolver creates a new queue resolver.
func NewQueueResolver(library ports.LibraryRepository, playlists ports.PlaylistRepository, logger *slog.Logger) *QueueResolver {
	return &QueueResolver{
		library:   library,
		playlists: playlists,
		logger:    logger,
	}
}

// Resolve converts items into queue entries, in order.
// Tracks become Track entries, albums and playlists become groups, and folders expand
// recursively into Track entries: child folders first, then the folder's own tracks.
func (r *QueueResolver) Resolve(ctx context.Context, items []domain.QueueItemParameter) ([]domain.QueueEntry, error) {
	var entries []domain.QueueEntry
	for _, item := range items {
		resolved, err := r.ResolveItem(ctx, item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, resolved...)
	}
	return entries, nil
}

// ResolveItem converts one item into queue entries.
func (r *QueueResolver) ResolveItem(ctx context.Context, item domain.QueueItemParameter) ([]domain.QueueEntry, error) {
	switch item.Kind {
	case domain.ItemTrack:
		t, err := r.library.Track(ctx, item.ID)
		if err != nil {
			return nil, r.wrap(item, err)
		}
		return []domain.QueueEntry{t}, nil

	case domain.ItemAlbum:
		a, err := r.library.Album(ctx, item.ID)
		if err != nil {
			return nil, r.wrap(item, err)
		}
		return []domain.QueueEntry{a}, nil

	case domain.ItemPlaylist:
		p, err := r.playlists.Get(ctx, item.ID)
		if err != nil {
			return nil, r.wrap(item, err)
		}
		return []domain.QueueEntry{p}, nil

	case domain.ItemFolder:
		tracks, err := r.folderTracks(ctx, item.ID, make(map[int64]bool))
		if err != nil {
			return nil, r.wrap(item, err)
		}
		return lo.Map(tracks, func(t domain.Track, _ int) domain.QueueEntry { return t }), nil

	default:
		return nil, domain.NewValidationError("kind", item.Kind, "unknown queue item kind")
	}
}

// TrackIDs flattens item into the ids of its tracks, without duplicates.
func (r *QueueResolver) TrackIDs(ctx context.Context, item domain.QueueItemParameter) ([]int64, error) {
	entries, err := r.ResolveItem(ctx, item)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, e := range entries {
		switch v := e.(type) {
		case domain.Track:
			ids = append(ids, v.ID)
		case domain.Group:
			ids = append(ids, lo.Map(v.Tracks(), func(t domain.Track, _ int) int64 { return t.ID })...)
		}
	}
	return lo.Uniq(ids), nil
}

func (r *QueueResolver) folderTracks(ctx context.Context, id int64, visited map[int64]bool) ([]domain.Track, error) {
	if visited[id] {
		r.logger.Warn("folder cycle detected", slog.Int64("folder_id", id))
		return nil, nil
	}
	visited[id] = true

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folders, tracks, err := r.library.FolderContents(ctx, id)
	if err != nil {
		return nil, err
	}

	var out []domain.Track
	for _, f := range folders {
		sub, err := r.folderTracks(ctx, f.ID, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return append(out, tracks...), nil
}

func (r *QueueResolver) wrap(item domain.QueueItemParameter, err error) error {
	return domain.NewServiceError("QueueResolver", "resolve",
		fmt.Sprintf("failed to resolve %s %d", item.Kind, item.ID), err)
}
