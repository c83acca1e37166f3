// Package config loads the postural YAML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds the full postural configuration.
type Config struct {
	ListenAddr     string        `yaml:"listen_addr"`
	DataDir        string        `yaml:"data_dir"`
	CameraID       int           `yaml:"camera_id"`
	FPS            int           `yaml:"fps"`
	PluginDir      string        `yaml:"plugin_dir"`
	WebDir         string        `yaml:"web_dir"`
	StableFrames   int           `yaml:"stable_frames"`
	RepeatInterval time.Duration `yaml:"repeat_interval"` // 0 fires once per hold
	MinVisibility  float64       `yaml:"min_visibility"`
	PluginTimeout  time.Duration `yaml:"plugin_timeout"`
	RecordEvents   bool          `yaml:"record_events"`
	EventRetention int           `yaml:"event_retention"`
	Tray           bool          `yaml:"tray"`
	LogLevel       string        `yaml:"log_level"` // debug | info | warn | error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		DataDir:        "~/.postural",
		CameraID:       0,
		FPS:            15,
		PluginDir:      "plugins",
		StableFrames:   3,
		RepeatInterval: time.Second,
		MinVisibility:  0.5,
		PluginTimeout:  5 * time.Second,
		RecordEvents:   true,
		EventRetention: 1000,
		LogLevel:       "info",
	}
}

// DefaultPath returns ~/.postural/config.yaml.
func DefaultPath() string {
	return filepath.Join(expandHome("~/.postural"), "config.yaml")
}

// Load reads a YAML config file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that values are in range.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr is required", ErrInvalid)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir is required", ErrInvalid)
	case c.CameraID < 0:
		return fmt.Errorf("%w: camera_id must be >= 0", ErrInvalid)
	case c.FPS <= 0 || c.FPS > 120:
		return fmt.Errorf("%w: fps must be in 1..120", ErrInvalid)
	case c.StableFrames < 1:
		return fmt.Errorf("%w: stable_frames must be >= 1", ErrInvalid)
	case c.RepeatInterval < 0:
		return fmt.Errorf("%w: repeat_interval must be >= 0", ErrInvalid)
	case c.MinVisibility < 0 || c.MinVisibility > 1:
		return fmt.Errorf("%w: min_visibility must be in [0, 1]", ErrInvalid)
	case c.PluginTimeout <= 0:
		return fmt.Errorf("%w: plugin_timeout must be > 0", ErrInvalid)
	case c.EventRetention < 0:
		return fmt.Errorf("%w: event_retention must be >= 0", ErrInvalid)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DataPath returns the data directory with ~ expanded.
func (c *Config) DataPath() string {
	return expandHome(c.DataDir)
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataPath(), "postural.db")
}

// Level returns the configured log level. Validate has already rejected
// unknown names, so errors fall back to info.
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalid, s)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
