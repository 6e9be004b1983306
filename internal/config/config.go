// Package config loads fingerspell's TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ayusman/fingerspell/internal/gesture"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP bind and static asset settings.
type Server struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
	// SessionIdleMinutes closes browser sessions with no frames, edits, or
	// open sockets for this long. Zero keeps them until deleted.
	SessionIdleMinutes int `toml:"session_idle_minutes"`
}

// Camera contains capture device settings for the server-side pipeline.
type Camera struct {
	Enabled  bool `toml:"enabled"`
	DeviceID int  `toml:"device_id"`
	FPS      int  `toml:"fps"`
	Mirror   bool `toml:"mirror"`
}

// Detector contains MediaPipe service settings.
type Detector struct {
	ScriptPath      string  `toml:"script_path"`
	PythonPath      string  `toml:"python_path"`
	MinConfidence   float64 `toml:"min_confidence"`
	MinTrackingConf float64 `toml:"min_tracking_confidence"`
}

// Recognition tunes the letter stabilizer.
type Recognition struct {
	HoldMs         int     `toml:"hold_ms"`
	CooldownMs     int     `toml:"cooldown_ms"`
	MinConfidence  float64 `toml:"min_confidence"`
	EmitConfidence float64 `toml:"emit_confidence"`
}

// Store contains the SQLite database location.
type Store struct {
	Path string `toml:"path"`
}

// Plugins contains letter sink plugin settings.
type Plugins struct {
	Dir       string   `toml:"dir"`
	Enabled   []string `toml:"enabled"`
	TimeoutMs int      `toml:"timeout_ms"`
}

// Logging contains log output settings.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Tray contains system tray settings.
type Tray struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for fingerspell.
type Config struct {
	Server      Server      `toml:"server"`
	Camera      Camera      `toml:"camera"`
	Detector    Detector    `toml:"detector"`
	Recognition Recognition `toml:"recognition"`
	Store       Store       `toml:"store"`
	Plugins     Plugins     `toml:"plugins"`
	Logging     Logging     `toml:"logging"`
	Tray        Tray        `toml:"tray"`
}

// Default returns the built-in configuration.
func Default() Config {
	params := gesture.DefaultParams()
	return Config{
		Server: Server{
			Addr:               "127.0.0.1:8080",
			SessionIdleMinutes: 30,
		},
		Camera: Camera{
			DeviceID: 0,
			FPS:      25,
			Mirror:   true,
		},
		Detector: Detector{
			MinConfidence:   0.5,
			MinTrackingConf: 0.5,
		},
		Recognition: Recognition{
			HoldMs:         int(params.Hold / time.Millisecond),
			CooldownMs:     int(params.Cooldown / time.Millisecond),
			MinConfidence:  params.MinConfidence,
			EmitConfidence: params.EmitConfidence,
		},
		Store: Store{
			Path: "~/.fingerspell/fingerspell.db",
		},
		Plugins: Plugins{
			Dir:       "~/.fingerspell/plugins",
			TimeoutMs: 5000,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fingerspell/config.toml")
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned path is the one that was (or would be) read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved := path
	if resolved == "" {
		var err error
		resolved, err = DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
	} else {
		var err error
		resolved, err = expandPath(resolved)
		if err != nil {
			return nil, "", false, err
		}
	}

	exists := true
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolved, exists, nil
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// SessionIdle returns how long a browser session may sit unused before it is closed.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}

// Params converts the recognition section into stabilizer parameters.
func (c *Config) Params() gesture.Params {
	return gesture.Params{
		Hold:           time.Duration(c.Recognition.HoldMs) * time.Millisecond,
		Cooldown:       time.Duration(c.Recognition.CooldownMs) * time.Millisecond,
		MinConfidence:  c.Recognition.MinConfidence,
		EmitConfidence: c.Recognition.EmitConfidence,
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return err
	}
	if c.Plugins.Dir, err = expandPath(c.Plugins.Dir); err != nil {
		return err
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return err
	}
	if c.Server.StaticDir, err = expandPath(c.Server.StaticDir); err != nil {
		return err
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

func expandPath(path string) (string, error) {
	if path == "" || path == ":memory:" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
