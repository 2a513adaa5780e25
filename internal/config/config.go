// Package config provides configuration types, defaults, and persistence for
// regatta.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for regatta.
type Config struct {
	// Server is the admin backend base URL, e.g. http://localhost:5000.
	Server string `mapstructure:"server" yaml:"server"`

	// Environment preselects a registry environment at startup (optional;
	// must still be configured on the backend to be usable).
	Environment string `mapstructure:"environment" yaml:"environment"`

	// OutputDir is where downloaded spec files are written.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// AuditDB is the path of the local operation audit database.
	AuditDB string `mapstructure:"audit_db" yaml:"audit_db"`

	// HistoryLimit caps how many remote history entries are fetched.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`

	UI    UIConfig    `mapstructure:"ui" yaml:"ui"`
	Theme ThemeConfig `mapstructure:"theme" yaml:"theme"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	// ShowCounts displays row counts in table titles.
	ShowCounts bool `mapstructure:"show_counts" yaml:"show_counts"`

	// MarkdownStyle selects the glamour style for the spec preview tab:
	// "dark" (default) or "light".
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"`
}

// ThemeConfig allows overriding individual theme colors (hex strings).
// Empty values keep the defaults.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight" yaml:"highlight"`
	Subtle    string `mapstructure:"subtle" yaml:"subtle"`
	Error     string `mapstructure:"error" yaml:"error"`
	Success   string `mapstructure:"success" yaml:"success"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Server:       "http://localhost:5000",
		OutputDir:    filepath.Join(home, "Downloads"),
		AuditDB:      filepath.Join(home, ".local", "share", "regatta", "audit.db"),
		HistoryLimit: 100,
		UI: UIConfig{
			ShowCounts:    true,
			MarkdownStyle: "dark",
		},
	}
}

// WriteDefaultConfig writes the default configuration to path, creating the
// parent directory as needed. Existing files are left untouched.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // config is not sensitive
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
