// Package config handles global talon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds default paths for the pipeline. Flags always override
// config; config only supplies defaults.
type Config struct {
	// SourceXML is the combined rules dump to extract from.
	SourceXML string `toml:"source_xml"`

	// GrantsDB is the grants database produced by extract.
	GrantsDB string `toml:"grants_db"`

	// CompendiumDB is the catalog database consulted by resolve.
	CompendiumDB string `toml:"compendium_db"`

	// ManualMappings is the operator override list (CSV or YAML).
	ManualMappings string `toml:"manual_mappings"`

	// Audit disables the JSONL run trail when set to false.
	Audit *bool `toml:"audit"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig holds optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or hex color ("#RRGGBB").
	Accent string `toml:"accent"`
}

// AuditEnabled reports whether the run trail should be written; it
// defaults to on.
func (c *Config) AuditEnabled() bool {
	return c.Audit == nil || *c.Audit
}

// Load loads the configuration from the default location. A missing file
// is a default config, not an error.
func Load() (*Config, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path,
// $XDG_CONFIG_HOME/talon/config.toml or ~/.config/talon/config.toml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "talon", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "talon", "config.toml")
	}
	return filepath.Join(home, ".config", "talon", "config.toml")
}
