package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// AddToPlaylistState is the state of an add-to-playlist dialog.
type AddToPlaylistState int

const (
	// AddBrowsing accepts a playlist selection
	AddBrowsing AddToPlaylistState = iota

	// AddAdding means a playlist write is in flight
	AddAdding

	// AddClosed means the dialog was dismissed
	AddClosed
)

// String returns a human-readable representation of the state.
func (s AddToPlaylistState) String() string {
	switch s {
	case AddBrowsing:
		return "browsing"
	case AddAdding:
		return "adding"
	case AddClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AddToPlaylistCoordinator guards the add-to-playlist dialog of one item.
// At most one playlist write is in flight, and the dialog cannot be dismissed while it runs.
// After a successful write the dismiss callback fires exactly once.
//
// Thread-safety: This implementation is thread-safe.
type AddToPlaylistCoordinator struct {
	// Dependencies (injected)
	playlists ports.PlaylistRepository
	resolver  *QueueResolver
	bus       ports.EventBus
	logger    *slog.Logger

	item    domain.QueueItemParameter
	dismiss func()

	// created is the playlist made by an AddToNew whose write failed.
	// Only the goroutine holding the Adding state touches it.
	created *createdPlaylist

	state AddToPlaylistState
	mu    sync.Mutex
}

type createdPlaylist struct {
	id   int64
	name string
}

// NewAddToPlaylistCoordinator creates a coordinator for item in the Browsing state.
func NewAddToPlaylistCoordinator(
	playlists ports.PlaylistRepository,
	resolver *QueueResolver,
	bus ports.EventBus,
	logger *slog.Logger,
	item domain.QueueItemParameter,
	dismiss func(),
) *AddToPlaylistCoordinator {
	return &AddToPlaylistCoordinator{
		playlists: playlists,
		resolver:  resolver,
		bus:       bus,
		logger:    logger,
		item:      item,
		dismiss:   dismiss,
		state:     AddBrowsing,
	}
}

// State returns the current dialog state.
func (c *AddToPlaylistCoordinator) State() AddToPlaylistState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Options lists the playlists the item can be added to.
func (c *AddToPlaylistCoordinator) Options(ctx context.Context) ([]domain.PlaylistSummary, error) {
	if c.State() == AddClosed {
		return nil, domain.ErrDialogClosed
	}
	return c.playlists.List(ctx)
}

// AddToExisting adds the item to playlist id.
func (c *AddToPlaylistCoordinator) AddToExisting(ctx context.Context, id int64) error {
	if err := c.begin(); err != nil {
		return err
	}
	n, err := c.write(ctx, id)
	return c.finish(id, n, err)
}

// AddToNew creates a playlist called name and adds the item to it.
// A retry after a failed write reuses the playlist the failed attempt created,
// renaming it when name changed.
func (c *AddToPlaylistCoordinator) AddToNew(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", name, "playlist name is required")
	}
	if err := c.begin(); err != nil {
		return err
	}

	id, err := c.newPlaylist(ctx, name)
	if err != nil {
		return c.finish(0, 0, err)
	}
	n, err := c.write(ctx, id)
	if errors.Is(err, domain.ErrPlaylistNotFound) {
		// Deleted behind our back; the next attempt creates a fresh one
		c.created = nil
	}
	return c.finish(id, n, err)
}

func (c *AddToPlaylistCoordinator) newPlaylist(ctx context.Context, name string) (int64, error) {
	if prev := c.created; prev != nil {
		if prev.name == name {
			return prev.id, nil
		}
		err := c.playlists.Rename(ctx, prev.id, name)
		if err == nil {
			prev.name = name
			return prev.id, nil
		}
		if !errors.Is(err, domain.ErrPlaylistNotFound) {
			return 0, err
		}
		c.created = nil
	}

	id, err := c.playlists.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	c.created = &createdPlaylist{id: id, name: name}
	c.logger.Debug("playlist created", slog.Int64("playlist_id", id), slog.String("name", name))
	return id, nil
}

// Dismiss closes the dialog. It is ignored while a write is in flight and reports whether
// the dialog was closed by this call.
func (c *AddToPlaylistCoordinator) Dismiss() bool {
	c.mu.Lock()
	if c.state != AddBrowsing {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("dismiss ignored", slog.String("state", state.String()))
		return false
	}
	c.state = AddClosed
	c.mu.Unlock()

	c.dismiss()
	return true
}

func (c *AddToPlaylistCoordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case AddAdding:
		return domain.ErrAddInFlight
	case AddClosed:
		return domain.ErrDialogClosed
	}
	c.state = AddAdding
	return nil
}

func (c *AddToPlaylistCoordinator) write(ctx context.Context, id int64) (int, error) {
	ids, err := c.resolver.TrackIDs(ctx, c.item)
	if err != nil {
		return 0, err
	}
	return len(ids), c.playlists.AddTracks(ctx, id, ids)
}

func (c *AddToPlaylistCoordinator) finish(id int64, tracks int, err error) error {
	c.mu.Lock()
	if err != nil {
		c.state = AddBrowsing
		c.mu.Unlock()
		c.logger.Warn("failed to add item to playlist",
			slog.Int64("playlist_id", id),
			slog.String("item", c.item.Kind.String()),
			slog.Any("error", err))
		return domain.NewServiceError("AddToPlaylist", "add", "playlist write failed", err)
	}
	c.state = AddClosed
	c.mu.Unlock()

	c.dismiss()

	if c.bus != nil {
		c.bus.Publish(domain.NewPlaylistItemAddedEvent(id, c.item, tracks))
	}
	return nil
}
