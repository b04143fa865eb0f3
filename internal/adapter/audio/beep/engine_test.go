// Tests in this file never open the speaker, so they run without an audio device.
package beep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// writeTestWAV writes a silent 16-bit mono WAV file and returns its path.
func writeTestWAV(t *testing.T, name string, sampleRate int, duration time.Duration) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	numSamples := int(int64(sampleRate) * int64(duration) / int64(time.Second))
	require.NoError(t, os.WriteFile(path, createMinimalWAV(sampleRate, numSamples), 0o600))
	return path
}

// createMinimalWAV creates a minimal valid WAV file with silence.
func createMinimalWAV(sampleRate, numSamples int) []byte {
	dataSize := numSamples * 2 // 16-bit samples = 2 bytes per sample
	fileSize := 36 + dataSize

	wav := make([]byte, 44+dataSize)

	// RIFF header
	copy(wav[0:4], "RIFF")
	writeUint32LE(wav[4:8], uint32(fileSize))
	copy(wav[8:12], "WAVE")

	// fmt chunk
	copy(wav[12:16], "fmt ")
	writeUint32LE(wav[16:20], 16)                   // fmt chunk size
	writeUint16LE(wav[20:22], 1)                    // audio format (PCM)
	writeUint16LE(wav[22:24], 1)                    // num channels (mono)
	writeUint32LE(wav[24:28], uint32(sampleRate))   // sample rate
	writeUint32LE(wav[28:32], uint32(sampleRate*2)) // byte rate
	writeUint16LE(wav[32:34], 2)                    // block align
	writeUint16LE(wav[34:36], 16)                   // bits per sample

	// data chunk
	copy(wav[36:40], "data")
	writeUint32LE(wav[40:44], uint32(dataSize))

	return wav
}

func writeUint32LE(buf []byte, val uint32) {
	buf[0] = byte(val)
	buf[1] = byte(val >> 8)
	buf[2] = byte(val >> 16)
	buf[3] = byte(val >> 24)
}

func writeUint16LE(buf []byte, val uint16) {
	buf[0] = byte(val)
	buf[1] = byte(val >> 8)
}

func TestReadTrack_WAV(t *testing.T) {
	path := writeTestWAV(t, "Morning Song.wav", 22050, 2*time.Second)

	track, err := ReadTrack(path)
	require.NoError(t, err)
	assert.Equal(t, path, track.Path)
	assert.Equal(t, "Morning Song", track.Name, "untagged files are named after the file")
	assert.Equal(t, 2*time.Second, track.Duration)
	assert.Nil(t, track.Album)
}

func TestReadTrack_Errors(t *testing.T) {
	_, err := ReadTrack("")
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)

	_, err = ReadTrack("/music/notes.txt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = ReadTrack(filepath.Join(t.TempDir(), "missing.mp3"))
	var engErr *domain.AudioEngineError
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, "open", engErr.Op)

	broken := filepath.Join(t.TempDir(), "broken.flac")
	require.NoError(t, os.WriteFile(broken, []byte("not audio"), 0o600))
	_, err = ReadTrack(broken)
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, "decode", engErr.Op)
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.mp3", true},
		{"a.MP3", true},
		{"a.flac", true},
		{"a.wav", true},
		{"a.ogg", false},
		{"a", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupported(tt.path), tt.path)
	}
}

func TestEngine_RequiresOpen(t *testing.T) {
	engine := NewEngine(ports.EngineConfig{}, logger.NewTestLogger())
	path := writeTestWAV(t, "a.wav", 8000, time.Second)

	_, err := engine.Load(context.Background(), domain.Track{Path: path})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	_, err = engine.Load(context.Background(), domain.Track{Path: "a.ogg"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = engine.Load(context.Background(), domain.Track{})
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)

	assert.ErrorIs(t, engine.Play(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, engine.Pause(), domain.ErrNoTrackLoaded)
	assert.ErrorIs(t, engine.Seek(time.Second), domain.ErrNoTrackLoaded)
	assert.NoError(t, engine.Close(), "closing an unopened engine is a no-op")
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := NewEngine(ports.EngineConfig{}, logger.NewTestLogger())
	assert.EqualValues(t, DefaultSampleRate, engine.sampleRate)
	assert.Equal(t, DefaultTickInterval, engine.tickInterval)

	engine = NewEngine(ports.EngineConfig{SampleRate: 48000, TickInterval: time.Second}, logger.NewTestLogger())
	assert.EqualValues(t, 48000, engine.sampleRate)
	assert.Equal(t, time.Second, engine.tickInterval)
}
