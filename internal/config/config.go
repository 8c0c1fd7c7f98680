// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for orientprompt.
// Loaded from ~/.config/orientprompt/orientprompt.toml
type Config struct {
	Prompt PromptConfig `toml:"prompt"`
	Window WindowConfig `toml:"window"`
	Randr  RandrConfig  `toml:"randr"`
	Sensor SensorConfig `toml:"sensor"`
}

// PromptConfig controls how long the prompt stays on screen.
type PromptConfig struct {
	Timeout Duration `toml:"timeout"` // Hide after this long without a click
}

// WindowConfig contains overlay window settings.
type WindowConfig struct {
	Icon      string `toml:"icon"`      // Icon theme name
	IconSize  int    `toml:"icon_size"` // Icon lookup size in pixels
	Size      int    `toml:"size"`      // Window width and height
	Margin    int    `toml:"margin"`    // Pixels from the anchored edges
	Namespace string `toml:"namespace"` // Layer-shell namespace
}

// RandrConfig configures the display transform tool.
type RandrConfig struct {
	Command string   `toml:"command"`
	Timeout Duration `toml:"timeout"`
}

// SensorConfig configures the orientation sensor.
type SensorConfig struct {
	RequireAccelerometer bool `toml:"require_accelerometer"` // Stay idle if the proxy reports no accelerometer
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Prompt: PromptConfig{
			Timeout: Duration(5 * time.Second),
		},
		Window: WindowConfig{
			Icon:      "rotation-allowed-symbolic",
			IconSize:  128,
			Size:      100,
			Margin:    0,
			Namespace: "orientprompt",
		},
		Randr: RandrConfig{
			Command: "wlr-randr",
			Timeout: Duration(10 * time.Second),
		},
		Sensor: SensorConfig{
			RequireAccelerometer: true,
		},
	}
}

const (
	// FileName is the config file's name within the config directory.
	FileName = "orientprompt.toml"
	// StyleFileName is the user stylesheet's name, next to the config file.
	StyleFileName = "style.css"
)

// Path returns the path to the config file.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "orientprompt", FileName), nil
}

// StylePath returns the user stylesheet that accompanies configPath.
func StylePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), StyleFileName)
}

// Load loads the configuration from path, or from Path() if path is empty.
// If the file doesn't exist, returns the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// RestartRequired lists the settings that differ between c and next but
// cannot be applied to a running prompt.
func (c *Config) RestartRequired(next *Config) []string {
	var keys []string
	// gtk4-layer-shell fixes the namespace when the surface is mapped.
	if c.Window.Namespace != next.Window.Namespace {
		keys = append(keys, "window.namespace")
	}
	return keys
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Prompt.Timeout.Duration() < time.Second {
		return fmt.Errorf("prompt timeout must be at least 1s, got %s", c.Prompt.Timeout.Duration())
	}
	if c.Window.Size < 16 || c.Window.Size > 1024 {
		return fmt.Errorf("window size must be between 16 and 1024, got %d", c.Window.Size)
	}
	if c.Window.IconSize < 16 || c.Window.IconSize > 1024 {
		return fmt.Errorf("icon_size must be between 16 and 1024, got %d", c.Window.IconSize)
	}
	if c.Window.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Window.Margin)
	}
	if strings.TrimSpace(c.Window.Icon) == "" {
		return errors.New("icon must not be empty")
	}
	if strings.TrimSpace(c.Randr.Command) == "" {
		return errors.New("randr command must not be empty")
	}
	if c.Randr.Timeout.Duration() <= 0 {
		return fmt.Errorf("randr timeout must be positive, got %s", c.Randr.Timeout.Duration())
	}
	return nil
}
