package sqlite

import "database/sql"

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS albums (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS library_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			album_id INTEGER REFERENCES albums(id) ON DELETE SET NULL,
			album_position INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_album ON library_tracks(album_id, album_position);

		CREATE TABLE IF NOT EXISTS artists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS track_artists (
			track_id INTEGER NOT NULL REFERENCES library_tracks(id) ON DELETE CASCADE,
			artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			PRIMARY KEY (track_id, artist_id)
		);

		CREATE TABLE IF NOT EXISTS folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER REFERENCES folders(id) ON DELETE CASCADE,
			name TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);

		CREATE TABLE IF NOT EXISTS folder_tracks (
			folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
			track_id INTEGER NOT NULL REFERENCES library_tracks(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			PRIMARY KEY (folder_id, track_id)
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			last_used_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id INTEGER NOT NULL REFERENCES library_tracks(id) ON DELETE CASCADE,
			PRIMARY KEY (playlist_id, track_id)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_position ON playlist_tracks(playlist_id, position);

		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}
