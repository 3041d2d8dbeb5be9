// Package config loads and saves the twinpane configuration file.
// Flags override file values; file values override the built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the user-tunable behavior of the engines and queue.
type Config struct {
	// OnConflict is the default conflict decision when no interactive
	// handler is wired: "skip", "overwrite" or "rename".
	// Skip is the shipped default so an unattended batch never destroys
	// existing files.
	OnConflict string `yaml:"on_conflict"`

	// CompressionLevel for archive writes: "store", "fast", "normal", "best".
	CompressionLevel string `yaml:"compression_level"`

	// ShowHidden includes hidden/system entries in directory listings.
	ShowHidden bool `yaml:"show_hidden"`

	// UseTrash routes non-permanent deletes to the platform trash.
	UseTrash bool `yaml:"use_trash"`

	// QueueWorkers bounds how many queue tasks run concurrently.
	QueueWorkers int `yaml:"queue_workers"`

	// SpaceSafetyMargin multiplies the required bytes in pre-copy disk
	// space checks (1.05 = 5% headroom).
	SpaceSafetyMargin float64 `yaml:"space_safety_margin"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OnConflict:        "skip",
		CompressionLevel:  "normal",
		ShowHidden:        false,
		UseTrash:          true,
		QueueWorkers:      2,
		SpaceSafetyMargin: 1.05,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "twinpane", "config.yaml"), nil
}

// Load reads the config file at path, layered over defaults. A missing file
// is not an error: defaults are returned unchanged so first run needs no
// setup step.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.OnConflict {
	case "skip", "overwrite", "rename":
	default:
		return fmt.Errorf("on_conflict must be skip, overwrite or rename, got %q", c.OnConflict)
	}
	switch c.CompressionLevel {
	case "store", "fast", "normal", "best":
	default:
		return fmt.Errorf("compression_level must be store, fast, normal or best, got %q", c.CompressionLevel)
	}
	if c.QueueWorkers < 1 || c.QueueWorkers > 32 {
		return fmt.Errorf("queue_workers must be between 1 and 32, got %d", c.QueueWorkers)
	}
	if c.SpaceSafetyMargin < 1.0 {
		return fmt.Errorf("space_safety_margin must be >= 1.0, got %g", c.SpaceSafetyMargin)
	}
	return nil
}
