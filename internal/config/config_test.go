package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFiles_Defaults(t *testing.T) {
	cfg, err := LoadFiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, EngineBeep, cfg.Engine.Kind)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, dbFileName, filepath.Base(cfg.Storage.Path))
	assert.Equal(t, domain.RepeatOff, cfg.RepeatState())
	assert.False(t, cfg.Playback.StrictInvariants)
}

func TestLoadFiles_Overrides(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[engine]
kind = "mock"
tick_interval = "100ms"
sample_rate = 48000

[storage]
driver = "memory"

[playback]
strict_invariants = true
repeat = "list"
`)

	cfg, err := LoadFiles(path)
	require.NoError(t, err)

	assert.Equal(t, EngineMock, cfg.Engine.Kind)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Playback.StrictInvariants)
	assert.Equal(t, domain.RepeatList, cfg.RepeatState())

	engine := cfg.EngineConfig()
	assert.Equal(t, 48000, engine.SampleRate)
	assert.Equal(t, EngineMock, engine.Kind)

	t.Setenv(logger.EnvLevel, "")
	logCfg := cfg.LoggerConfig()
	assert.Equal(t, slog.LevelDebug, logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
}

func TestLoadFiles_LastFileWins(t *testing.T) {
	first := writeConfig(t, "[engine]\nkind = \"mock\"\nsample_rate = 22050\n")
	second := writeConfig(t, "[engine]\nsample_rate = 96000\n")

	cfg, err := LoadFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, EngineMock, cfg.Engine.Kind, "keys missing from the later file are kept")
	assert.Equal(t, 96000, cfg.Engine.SampleRate)
}

func TestLoadFiles_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	path := writeConfig(t, "[storage]\npath = \"~/music/tunedeck.db\"\n")

	cfg, err := LoadFiles(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "music", "tunedeck.db"), cfg.Storage.Path)
}

func TestLoadFiles_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"log level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"log format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"engine kind", "[engine]\nkind = \"bass\"\n", "engine.kind"},
		{"sample rate", "[engine]\nsample_rate = -1\n", "engine.sample_rate"},
		{"storage driver", "[storage]\ndriver = \"postgres\"\n", "storage.driver"},
		{"repeat", "[playback]\nrepeat = \"forever\"\n", "repeat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFiles(writeConfig(t, tt.content))
			var valErr *domain.ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestLoadFiles_Malformed(t *testing.T) {
	_, err := LoadFiles(writeConfig(t, "[engine\nkind = "))
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	paths := Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(appName, configFileName), filepath.Join(filepath.Base(filepath.Dir(paths[0])), filepath.Base(paths[0])))
	assert.Equal(t, configFileName, paths[1])
}
