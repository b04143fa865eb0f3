// Package sqlite provides repository implementations backed by an SQLite database.
// A single Store implements the library, playlist and preferences repositories.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is an SQLite-backed repository.
//
// Thread-safe: database/sql serializes access; the pool is limited to one connection
// so per-connection pragmas stay in effect.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and initializes the schema.
// Parent directories of a file path are created as needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path != MemoryPath && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.NewRepositoryError("open", "sqlite", "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewRepositoryError("open", "sqlite", "failed to open database", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", "sqlite", "failed to set pragma", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("open", "sqlite", "failed to initialize schema", err)
	}

	logger.Debug("database opened", slog.String("path", path))
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx executes fn within a transaction.
// It handles Begin, Rollback on error, and Commit on success.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func nullInt64ToPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

func ptrToNullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// Verify that Store implements the interfaces
var (
	_ ports.LibraryRepository     = (*Store)(nil)
	_ ports.LibraryWriter         = (*Store)(nil)
	_ ports.PlaylistRepository    = (*Store)(nil)
	_ ports.PreferencesRepository = (*Store)(nil)
)
