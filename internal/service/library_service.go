package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// LibraryService registers audio files from disk in the library.
// All operations are thread-safe via sync.Mutex.
type LibraryService struct {
	// Dependencies (injected)
	reader ports.MetadataReader
	writer ports.LibraryWriter
	logger *slog.Logger

	// State
	scanning   bool
	cancelScan context.CancelFunc

	// Concurrency control
	mu sync.Mutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	logger *slog.Logger,
	reader ports.MetadataReader,
	writer ports.LibraryWriter,
) *LibraryService {
	return &LibraryService{
		reader: reader,
		writer: writer,
		logger: logger,
	}
}

// ScanFolder walks folderPath recursively in lexical order and registers every
// supported file. Files that cannot be read are skipped.
func (s *LibraryService) ScanFolder(ctx context.Context, folderPath string) ([]domain.Track, error) {
	ctx, done, err := s.beginScan(ctx, "ScanFolder")
	if err != nil {
		return nil, err
	}
	defer done()

	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, domain.ErrScanCancelled
		}
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", folderPath, err)
	}

	tracks := make([]domain.Track, 0, len(files))
	for _, filePath := range files {
		if ctx.Err() != nil {
			return tracks, domain.ErrScanCancelled
		}

		track, err := s.register(ctx, filePath)
		if err != nil {
			// Skip files that can't be read but continue scanning
			s.logger.Warn("skipping file", slog.String("path", filePath), slog.Any("error", err))
			continue
		}
		tracks = append(tracks, track)
	}

	s.logger.Info("folder scanned",
		slog.String("path", folderPath),
		slog.Int("files", len(files)),
		slog.Int("tracks", len(tracks)))
	return tracks, nil
}

// ScanFiles registers the given files in order. Unlike ScanFolder it stops at
// the first file that cannot be registered.
func (s *LibraryService) ScanFiles(ctx context.Context, filePaths []string) ([]domain.Track, error) {
	ctx, done, err := s.beginScan(ctx, "ScanFiles")
	if err != nil {
		return nil, err
	}
	defer done()

	tracks := make([]domain.Track, 0, len(filePaths))
	for _, filePath := range filePaths {
		if ctx.Err() != nil {
			return tracks, domain.ErrScanCancelled
		}

		if _, err := os.Stat(filePath); err != nil {
			return tracks, domain.NewServiceError("LibraryService", "ScanFiles", filePath, domain.ErrInvalidFilePath)
		}
		track, err := s.register(ctx, filePath)
		if err != nil {
			return tracks, domain.NewServiceError("LibraryService", "ScanFiles", filePath, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// CancelScan cancels the currently running scan operation.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	s.cancelScan()
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// IsFormatSupported checks if a file format is supported.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return s.reader.IsSupported(filePath)
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		s.cancelScan()
	}
	return nil
}

// beginScan marks a scan as running. The returned func must be called when it ends.
func (s *LibraryService) beginScan(ctx context.Context, op string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		return nil, nil, domain.NewServiceError("LibraryService", op, "scan already in progress", domain.ErrScanInProgress)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.scanning = true
	s.cancelScan = cancel

	return ctx, func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}, nil
}

func (s *LibraryService) register(ctx context.Context, filePath string) (domain.Track, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return domain.Track{}, err
	}
	track, err := s.reader.ReadTrack(abs)
	if err != nil {
		return domain.Track{}, err
	}
	return s.writer.SaveTrack(ctx, track)
}

// collectAudioFiles recursively collects all audio files in a directory.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	info, err := os.Stat(folderPath)
	if err != nil {
		return nil, domain.ErrInvalidFilePath
	}
	if !info.IsDir() {
		return nil, domain.NewValidationError("path", folderPath, "not a directory")
	}

	var files []string
	err = filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return context.Canceled
		}
		if err != nil {
			// Skip files/folders we can't access
			s.logger.Debug("walk error", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() && s.reader.IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
