// Package config loads the tunedeck configuration from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/logger"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

const (
	appName        = "tunedeck"
	configFileName = "config.toml"
	dbFileName     = "tunedeck.db"
)

// Engine kinds
const (
	EngineBeep = "beep"
	EngineMock = "mock"
)

// Storage drivers
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config is the complete tunedeck configuration. Default supplies every
// value and TOML files read by LoadFiles override them.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Engine   EngineConfig   `koanf:"engine"`
	Storage  StorageConfig  `koanf:"storage"`
	Playback PlaybackConfig `koanf:"playback"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn" or "error"
	Format string `koanf:"format"` // "text" or "json"
}

// EngineConfig holds playback engine settings.
type EngineConfig struct {
	Kind         string        `koanf:"kind"`          // "beep" or "mock"
	TickInterval time.Duration `koanf:"tick_interval"` // e.g. "250ms"
	SampleRate   int           `koanf:"sample_rate"`   // output rate in Hz
}

// StorageConfig holds repository settings.
type StorageConfig struct {
	Driver string `koanf:"driver"` // "sqlite" or "memory"
	Path   string `koanf:"path"`   // database file for the sqlite driver
}

// PlaybackConfig holds playback controller settings.
type PlaybackConfig struct {
	StrictInvariants bool   `koanf:"strict_invariants"` // panic on an invalid queue position
	Repeat           string `koanf:"repeat"`            // initial repeat mode when none was saved
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Engine: EngineConfig{
			Kind:         EngineBeep,
			TickInterval: 250 * time.Millisecond,
			SampleRate:   44100,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   filepath.Join(xdg.DataHome, appName, dbFileName),
		},
		Playback: PlaybackConfig{Repeat: domain.RepeatOff.String()},
	}
}

// Load reads the configuration from the default locations.
func Load() (*Config, error) {
	return LoadFiles(Paths()...)
}

// LoadFiles reads the existing files among paths over the defaults.
// Later files override earlier ones.
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Paths returns the configuration files in order of priority (last wins).
func Paths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tunedeck/config.toml
		filepath.Join(xdg.ConfigHome, appName, configFileName),
		// 2. ./config.toml (pwd, highest priority)
		configFileName,
	}
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return domain.NewValidationError("log.level", c.Log.Level, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return domain.NewValidationError("log.format", c.Log.Format, "must be text or json")
	}
	if c.Engine.Kind != EngineBeep && c.Engine.Kind != EngineMock {
		return domain.NewValidationError("engine.kind", c.Engine.Kind, "must be beep or mock")
	}
	if c.Engine.TickInterval <= 0 {
		return domain.NewValidationError("engine.tick_interval", c.Engine.TickInterval, "must be positive")
	}
	if c.Engine.SampleRate <= 0 {
		return domain.NewValidationError("engine.sample_rate", c.Engine.SampleRate, "must be positive")
	}
	if c.Storage.Driver != StorageSQLite && c.Storage.Driver != StorageMemory {
		return domain.NewValidationError("storage.driver", c.Storage.Driver, "must be sqlite or memory")
	}
	if c.Storage.Driver == StorageSQLite && c.Storage.Path == "" {
		return domain.NewValidationError("storage.path", c.Storage.Path, "required for the sqlite driver")
	}
	if _, err := domain.ParseRepeatState(c.Playback.Repeat); err != nil {
		return err
	}
	return nil
}

// LoggerConfig returns the logger configuration, with the environment override applied.
func (c *Config) LoggerConfig() logger.Config {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.ApplyEnv(logger.Config{Level: level, Format: c.Log.Format})
}

// EngineConfig returns the playback engine configuration.
func (c *Config) EngineConfig() ports.EngineConfig {
	return ports.EngineConfig{
		Kind:         c.Engine.Kind,
		SampleRate:   c.Engine.SampleRate,
		TickInterval: c.Engine.TickInterval,
	}
}

// RepeatState returns the configured initial repeat mode.
func (c *Config) RepeatState() domain.RepeatState {
	repeat, _ := domain.ParseRepeatState(c.Playback.Repeat)
	return repeat
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
