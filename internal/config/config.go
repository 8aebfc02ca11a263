// Package config loads the wavfx configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/wavfx/preset"
	"github.com/cwbudde/wavfx/project"
)

// EnvConfig names the configuration file when no path is given.
const EnvConfig = "WAVFX_CONFIG"

// Preset backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Relocation modes.
const (
	RelocateLocal = "local"
	RelocateShell = "shell"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	ScratchDir string         `yaml:"scratch_dir"`
	Log        LogConfig      `yaml:"log"`
	Preset     PresetConfig   `yaml:"preset"`
	Relocate   RelocateConfig `yaml:"relocate"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	// SongsDir holds the song files listed by `wavfx songs`.
	SongsDir string `yaml:"songs_dir"`
	// MaxJobs caps concurrently running jobs; 0 keeps the processor default.
	MaxJobs int `yaml:"max_jobs"`
}

// LogConfig selects level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PresetConfig selects the preset store.
type PresetConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
	Name      string `yaml:"name"`
}

// RelocateConfig selects how sources are read and replaced.
type RelocateConfig struct {
	Mode  string   `yaml:"mode"`
	Shell string   `yaml:"shell"`
	Args  []string `yaml:"args"`
	Stdin bool     `yaml:"stdin"`
	// CopyIn copies the source to the scratch directory before reading.
	CopyIn bool `yaml:"copy_in"`
}

// MetricsConfig controls the job metrics.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in Prometheus text format
	// when the command exits, for the node_exporter textfile collector.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	presets := "presets.yaml"
	if dir, err := os.UserConfigDir(); err == nil {
		presets = filepath.Join(dir, "wavfx", "presets.yaml")
	}

	return Config{
		ScratchDir: filepath.Join(os.TempDir(), "wavfx"),
		SongsDir:   project.DefaultSongsDir,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Preset: PresetConfig{
			Backend:  BackendFile,
			Path:     presets,
			RedisKey: preset.DefaultRedisKey,
			Name:     preset.DefaultName,
		},
		Relocate: RelocateConfig{
			Mode: RelocateLocal,
		},
	}
}

// Load reads path, or the file named by WAVFX_CONFIG when path is empty.
// Without either the defaults are returned. Fields missing from the file
// keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the selected backends are known and complete.
func (c Config) Validate() error {
	switch c.Preset.Backend {
	case BackendFile:
		if c.Preset.Path == "" {
			return fmt.Errorf("%w: preset.path is required for the file backend", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Preset.RedisAddr == "" {
			return fmt.Errorf("%w: preset.redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown preset backend %q", ErrInvalidConfig, c.Preset.Backend)
	}

	if c.Preset.Name == "" {
		return fmt.Errorf("%w: preset.name is empty", ErrInvalidConfig)
	}

	switch c.Relocate.Mode {
	case RelocateLocal, RelocateShell:
	default:
		return fmt.Errorf("%w: unknown relocate mode %q", ErrInvalidConfig, c.Relocate.Mode)
	}

	if c.MaxJobs < 0 {
		return fmt.Errorf("%w: max_jobs must not be negative: %d", ErrInvalidConfig, c.MaxJobs)
	}

	return nil
}
