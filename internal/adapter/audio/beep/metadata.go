package beep

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/dhowden/tag"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Supported file extensions
const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
)

var supportedFormats = []string{extMP3, extFLAC, extWAV}

// MetadataReader exposes ReadTrack and IsSupported as a ports.MetadataReader.
type MetadataReader struct{}

var _ ports.MetadataReader = MetadataReader{}

// IsSupported implements ports.MetadataReader.
func (MetadataReader) IsSupported(path string) bool { return IsSupported(path) }

// ReadTrack implements ports.MetadataReader.
func (MetadataReader) ReadTrack(path string) (domain.Track, error) { return ReadTrack(path) }

// IsSupported reports whether the engine can decode the file at path.
func IsSupported(path string) bool {
	return slices.Contains(supportedFormats, strings.ToLower(filepath.Ext(path)))
}

// ReadTrack builds a track from the file at path.
// Tags are optional: a file without them is named after its base name.
// The duration comes from decoding the stream header.
func ReadTrack(path string) (domain.Track, error) {
	if path == "" {
		return domain.Track{}, domain.ErrInvalidFilePath
	}
	if !IsSupported(path) {
		return domain.Track{}, domain.NewAudioEngineError("read", path, "unsupported format", domain.ErrUnsupportedFormat)
	}

	track := domain.Track{
		Path: path,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	duration, err := probeDuration(path)
	if err != nil {
		return domain.Track{}, err
	}
	track.Duration = duration

	readTags(&track)
	return track, nil
}

func readTags(track *domain.Track) {
	file, err := os.Open(track.Path)
	if err != nil {
		return
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		// If tag reading fails, keep the file name
		return
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Name = title
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		track.Artists = []domain.ArtistRef{{Name: artist}}
	}
	if album := strings.TrimSpace(metadata.Album()); album != "" {
		track.Album = &domain.AlbumRef{Name: album}
	}
}

func probeDuration(path string) (time.Duration, error) {
	streamer, format, err := decodeFile(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// decodeFile opens and decodes path. Closing the returned streamer releases the file.
func decodeFile(path string) (gobeep.StreamSeekCloser, gobeep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gobeep.Format{}, domain.NewAudioEngineError("open", path, "failed to open file", err)
	}

	var streamer gobeep.StreamSeekCloser
	var format gobeep.Format

	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	case extWAV:
		streamer, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, gobeep.Format{}, domain.NewAudioEngineError("decode", path, "failed to decode file", err)
	}
	return streamer, format, nil
}
