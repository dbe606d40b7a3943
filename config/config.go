// Package config loads the trrename YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/classify"
)

// Config holds the full trrename configuration. CLI flags override
// whatever the file sets.
type Config struct {
	Root        string `yaml:"root"`
	Recursive   bool   `yaml:"recursive"`
	DryRun      bool   `yaml:"dry_run"`
	MaxFileMB   int    `yaml:"max_file_mb"`
	JournalPath string `yaml:"journal_path"`
	LogLevel    string `yaml:"log_level"` // debug | info | warn | error

	Report ReportConfig `yaml:"report"`

	// Rules run before the built-in table, so a custom rule can claim a
	// document the defaults would misfile.
	Rules []classify.Rule `yaml:"rules"`
}

// ReportConfig configures the report HTTP server. An empty password
// leaves the API unauthenticated.
type ReportConfig struct {
	Listen   string `yaml:"listen"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileMB:   100,
		JournalPath: "trrename.db",
		LogLevel:    "info",
		Report: ReportConfig{
			Listen: ":8417",
		},
	}
}

// LoadConfig reads and parses a YAML config file over the defaults. A
// missing file is not an error; the defaults stand on their own.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
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

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.JournalPath == "" {
		return fmt.Errorf("journal_path is required")
	}
	for i, r := range c.Rules {
		if r.Type == "" {
			return fmt.Errorf("rule[%d]: type is required", i)
		}
		if len(r.All) == 0 {
			return fmt.Errorf("rule[%d] (%s): at least one keyword under all is required", i, r.Type)
		}
	}
	return nil
}

// MaxFileBytes returns the per-file size cap in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

// SlogLevel maps the configured level name to a slog level. Unknown
// names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
