package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// Create persists a new empty playlist.
func (s *Store) Create(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("name", name, "playlist name is required")
	}

	now := s.now().UnixMilli()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO playlists (name, created_at, last_used_at)
		VALUES (?, ?, ?)
	`, name, now, now)
	if err != nil {
		return 0, domain.NewRepositoryError("create", "playlist", fmt.Sprintf("failed to create playlist %q", name), err)
	}
	return result.LastInsertId()
}

// Get retrieves a playlist with its tracks in playlist order.
func (s *Store) Get(ctx context.Context, id int64) (domain.Playlist, error) {
	p := domain.Playlist{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name, image FROM playlists WHERE id = ?`, id).
		Scan(&p.Name, &p.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Playlist{}, domain.ErrPlaylistNotFound
	}
	if err != nil {
		return domain.Playlist{}, domain.NewRepositoryError("get", "playlist", fmt.Sprintf("failed to load playlist %d", id), err)
	}

	p.Items, err = s.queryTracks(ctx, s.db, `SELECT `+trackColumns+`
		JOIN playlist_tracks pt ON pt.track_id = t.id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position`, id)
	if err != nil {
		return domain.Playlist{}, domain.NewRepositoryError("get", "playlist", fmt.Sprintf("failed to load playlist %d tracks", id), err)
	}
	return p, nil
}

// List retrieves all playlists, most recently used first.
func (s *Store) List(ctx context.Context) ([]domain.PlaylistSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.image, p.created_at, p.last_used_at,
			(SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id)
		FROM playlists p
		ORDER BY p.last_used_at DESC, p.id DESC
	`)
	if err != nil {
		return nil, domain.NewRepositoryError("list", "playlist", "failed to list playlists", err)
	}
	defer rows.Close()

	summaries := []domain.PlaylistSummary{}
	for rows.Next() {
		var ps domain.PlaylistSummary
		var createdAt, lastUsedAt int64
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Image, &createdAt, &lastUsedAt, &ps.TrackCount); err != nil {
			return nil, domain.NewRepositoryError("list", "playlist", "failed to scan playlist", err)
		}
		ps.CreatedAt = time.UnixMilli(createdAt)
		ps.LastUsedAt = time.UnixMilli(lastUsedAt)
		summaries = append(summaries, ps)
	}
	return summaries, rows.Err()
}

// Rename changes the name of a playlist.
func (s *Store) Rename(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("name", name, "playlist name is required")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return domain.NewRepositoryError("rename", "playlist", fmt.Sprintf("failed to rename playlist %d", id), err)
	}
	return requireAffected(result, domain.ErrPlaylistNotFound)
}

// Delete removes a playlist and its track list.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return domain.NewRepositoryError("delete", "playlist", fmt.Sprintf("failed to delete playlist %d", id), err)
	}
	return nil
}

// AddTracks appends tracks to a playlist, skipping tracks already present,
// and marks the playlist as used.
func (s *Store) AddTracks(ctx context.Context, id int64, trackIDs []int64) error {
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var maxPos sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT MAX(pt.position)
			FROM playlists p
			LEFT JOIN playlist_tracks pt ON pt.playlist_id = p.id
			WHERE p.id = ?
			GROUP BY p.id
		`, id).Scan(&maxPos)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPlaylistNotFound
		}
		if err != nil {
			return err
		}

		nextPos := int64(0)
		if maxPos.Valid {
			nextPos = maxPos.Int64 + 1
		}

		for _, trackID := range lo.Uniq(trackIDs) {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM library_tracks WHERE id = ?`, trackID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("unknown track %d: %w", trackID, domain.ErrTrackNotFound)
			}
			if err != nil {
				return err
			}

			result, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO playlist_tracks (playlist_id, position, track_id)
				VALUES (?, ?, ?)
			`, id, nextPos, trackID)
			if err != nil {
				return err
			}
			if n, _ := result.RowsAffected(); n > 0 {
				nextPos++
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE playlists SET last_used_at = ? WHERE id = ?`, s.now().UnixMilli(), id)
		return err
	})
	if errors.Is(err, domain.ErrPlaylistNotFound) {
		return err
	}
	if err != nil {
		return domain.NewRepositoryError("add_tracks", "playlist", fmt.Sprintf("failed to add tracks to playlist %d", id), err)
	}
	return nil
}

// RemoveTrack removes a track from a playlist and closes the gap it leaves.
func (s *Store) RemoveTrack(ctx context.Context, id int64, trackID int64) error {
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM playlists WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPlaylistNotFound
		}
		if err != nil {
			return err
		}

		var position int64
		err = tx.QueryRowContext(ctx, `
			DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?
			RETURNING position
		`, id, trackID).Scan(&position)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		// Shift down positions after the deleted track
		_, err = tx.ExecContext(ctx, `
			UPDATE playlist_tracks
			SET position = position - 1
			WHERE playlist_id = ? AND position > ?
		`, id, position)
		return err
	})
	if errors.Is(err, domain.ErrPlaylistNotFound) {
		return err
	}
	if err != nil {
		return domain.NewRepositoryError("remove_track", "playlist", fmt.Sprintf("failed to remove track %d from playlist %d", trackID, id), err)
	}
	return nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
