package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const trackColumns = `
	t.id, t.path, t.title, t.duration_ms, t.album_id, COALESCE(a.name, '')
	FROM library_tracks t
	LEFT JOIN albums a ON a.id = t.album_id`

// Track retrieves a track by ID.
func (s *Store) Track(ctx context.Context, id int64) (domain.Track, error) {
	tracks, err := s.queryTracks(ctx, s.db, `SELECT `+trackColumns+` WHERE t.id = ?`, id)
	if err != nil {
		return domain.Track{}, domain.NewRepositoryError("get", "library", fmt.Sprintf("failed to load track %d", id), err)
	}
	if len(tracks) == 0 {
		return domain.Track{}, domain.ErrTrackNotFound
	}
	return tracks[0], nil
}

// Album retrieves an album with its tracks in album order.
func (s *Store) Album(ctx context.Context, id int64) (domain.Album, error) {
	album := domain.Album{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name, image FROM albums WHERE id = ?`, id).
		Scan(&album.Name, &album.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Album{}, domain.ErrAlbumNotFound
	}
	if err != nil {
		return domain.Album{}, domain.NewRepositoryError("get", "library", fmt.Sprintf("failed to load album %d", id), err)
	}

	album.Items, err = s.queryTracks(ctx, s.db, `SELECT `+trackColumns+`
		WHERE t.album_id = ?
		ORDER BY t.album_position, t.id`, id)
	if err != nil {
		return domain.Album{}, domain.NewRepositoryError("get", "library", fmt.Sprintf("failed to load album %d tracks", id), err)
	}
	return album, nil
}

// FolderContents retrieves the direct child folders and tracks of a folder.
func (s *Store) FolderContents(ctx context.Context, id int64) ([]domain.Folder, []domain.Track, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM folders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrFolderNotFound
	}
	if err != nil {
		return nil, nil, domain.NewRepositoryError("get", "library", fmt.Sprintf("failed to load folder %d", id), err)
	}

	folders, err := s.childFolders(ctx, id)
	if err != nil {
		return nil, nil, domain.NewRepositoryError("get", "library", fmt.Sprintf("failed to load folder %d children", id), err)
	}

	tracks, err := s.queryTracks(ctx, s.db, `SELECT `+trackColumns+`
		JOIN folder_tracks ft ON ft.track_id = t.id
		WHERE ft.folder_id = ?
		ORDER BY ft.position`, id)
	if err != nil {
		return nil, nil, domain.NewRepositoryError("get", "library", fmt.Sprintf("failed to load folder %d tracks", id), err)
	}
	return folders, tracks, nil
}

func (s *Store) childFolders(ctx context.Context, id int64) ([]domain.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, name
		FROM folders
		WHERE parent_id = ?
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		var parentID sql.NullInt64
		if err := rows.Scan(&f.ID, &parentID, &f.Name); err != nil {
			return nil, err
		}
		f.ParentID = nullInt64ToPtr(parentID)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// queryTracks runs a track query and attaches artists. Rows are closed before the
// artist lookup because the pool holds a single connection.
func (s *Store) queryTracks(ctx context.Context, q querier, query string, args ...any) ([]domain.Track, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var tracks []domain.Track
	for rows.Next() {
		var t domain.Track
		var durationMs int64
		var albumID sql.NullInt64
		var albumName string
		if err := rows.Scan(&t.ID, &t.Path, &t.Name, &durationMs, &albumID, &albumName); err != nil {
			rows.Close()
			return nil, err
		}
		t.Duration = time.Duration(durationMs) * time.Millisecond
		if albumID.Valid {
			t.Album = &domain.AlbumRef{ID: albumID.Int64, Name: albumName}
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(tracks) == 0 {
		return tracks, nil
	}
	return tracks, s.attachArtists(ctx, q, tracks)
}

func (s *Store) attachArtists(ctx context.Context, q querier, tracks []domain.Track) error {
	ids := lo.Uniq(lo.Map(tracks, func(t domain.Track, _ int) any { return t.ID }))
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := q.QueryContext(ctx, `
		SELECT ta.track_id, ar.id, ar.name
		FROM track_artists ta
		JOIN artists ar ON ar.id = ta.artist_id
		WHERE ta.track_id IN (`+placeholders+`)
		ORDER BY ta.track_id, ta.position
	`, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byTrack := make(map[int64][]domain.ArtistRef)
	for rows.Next() {
		var trackID int64
		var a domain.ArtistRef
		if err := rows.Scan(&trackID, &a.ID, &a.Name); err != nil {
			return err
		}
		byTrack[trackID] = append(byTrack[trackID], a)
	}
	for i := range tracks {
		tracks[i].Artists = byTrack[tracks[i].ID]
	}
	return rows.Err()
}

// SaveTrack stores track, matching an existing track by path.
// Artists are matched by name and created when missing.
func (s *Store) SaveTrack(ctx context.Context, track domain.Track) (domain.Track, error) {
	if track.Path == "" {
		return domain.Track{}, domain.NewValidationError("path", track.Path, "track path is required")
	}

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = saveTrack(ctx, tx, track, sql.NullInt64{})
		return err
	})
	if err != nil {
		return domain.Track{}, domain.NewRepositoryError("save", "library", fmt.Sprintf("failed to save track %q", track.Path), err)
	}
	return track, nil
}

// InsertAlbum stores an album and its tracks in album order.
// Returns the album ID.
func (s *Store) InsertAlbum(ctx context.Context, album domain.Album) (int64, error) {
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var id sql.NullInt64
		if album.ID != 0 {
			id = sql.NullInt64{Int64: album.ID, Valid: true}
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO albums (id, name, image) VALUES (?, ?, ?)
			RETURNING id
		`, id, album.Name, album.Image).Scan(&album.ID)
		if err != nil {
			return err
		}

		for i, t := range album.Items {
			t.Album = &domain.AlbumRef{ID: album.ID, Name: album.Name}
			if _, err := saveTrack(ctx, tx, t, sql.NullInt64{Int64: int64(i), Valid: true}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, domain.NewRepositoryError("insert", "library", fmt.Sprintf("failed to insert album %q", album.Name), err)
	}
	return album.ID, nil
}

// InsertFolder stores a folder holding trackIDs, in order.
// Returns the folder ID.
func (s *Store) InsertFolder(ctx context.Context, folder domain.Folder, trackIDs ...int64) (int64, error) {
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var id sql.NullInt64
		if folder.ID != 0 {
			id = sql.NullInt64{Int64: folder.ID, Valid: true}
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO folders (id, parent_id, name) VALUES (?, ?, ?)
			RETURNING id
		`, id, ptrToNullInt64(folder.ParentID), folder.Name).Scan(&folder.ID)
		if err != nil {
			return err
		}

		for i, trackID := range trackIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO folder_tracks (folder_id, track_id, position) VALUES (?, ?, ?)
			`, folder.ID, trackID, i)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, domain.NewRepositoryError("insert", "library", fmt.Sprintf("failed to insert folder %q", folder.Name), err)
	}
	return folder.ID, nil
}

func saveTrack(ctx context.Context, tx *sql.Tx, track domain.Track, albumPosition sql.NullInt64) (domain.Track, error) {
	var id, albumID sql.NullInt64
	if track.ID != 0 {
		id = sql.NullInt64{Int64: track.ID, Valid: true}
	}
	if track.Album != nil {
		albumID = sql.NullInt64{Int64: track.Album.ID, Valid: true}
	}
	track.Artists = slices.Clone(track.Artists)

	err := tx.QueryRowContext(ctx, `
		INSERT INTO library_tracks (id, path, title, duration_ms, album_id, album_position)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			duration_ms = excluded.duration_ms,
			album_id = COALESCE(excluded.album_id, album_id),
			album_position = COALESCE(excluded.album_position, album_position)
		RETURNING id
	`, id, track.Path, track.Name, track.Duration.Milliseconds(), albumID, albumPosition).Scan(&track.ID)
	if err != nil {
		return track, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM track_artists WHERE track_id = ?`, track.ID); err != nil {
		return track, err
	}
	for i, a := range track.Artists {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO artists (name) VALUES (?)
			ON CONFLICT(name) DO UPDATE SET name = excluded.name
			RETURNING id
		`, a.Name).Scan(&track.Artists[i].ID)
		if err != nil {
			return track, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO track_artists (track_id, artist_id, position) VALUES (?, ?, ?)
		`, track.ID, track.Artists[i].ID, i)
		if err != nil {
			return track, err
		}
	}
	return track, nil
}
