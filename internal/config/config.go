// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Backend
	BackendURL string `json:"backend_url,omitempty"` // Base URL of the assistant backend
	Token      string `json:"token,omitempty"`       // Session token (overridden by OUTREACH_TOKEN)
	TimeoutSec int    `json:"timeout_sec,omitempty"` // Per-request timeout in seconds

	// Local gateway
	Port      int    `json:"port,omitempty"`       // Listen port for the serve command
	StaticDir string `json:"static_dir,omitempty"` // Directory with the built web client

	// Local state
	StateDB string `json:"state_db,omitempty"` // Path to the SQLite state database
	Theme   string `json:"theme,omitempty"`    // UI theme preference

	// Behavior
	UseBrowser    bool `json:"use_browser,omitempty"`    // Use headless browser for SPA job pages
	Verbose       bool `json:"verbose,omitempty"`        // Print detailed debug information
	StrictSchemas bool `json:"strict_schemas,omitempty"` // Validate backend payloads against JSON Schemas
}

// Defaults used when neither the config file nor flags provide a value.
const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultPort       = 5173
	DefaultTimeoutSec = 30
)

// DefaultStateDB returns the default SQLite path under the user config dir,
// falling back to the working directory when no config dir exists.
func DefaultStateDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "outreach-agent.db"
	}
	return filepath.Join(dir, "outreach-agent", "state.db")
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'backend_url' is not an absolute URL: %s", c.BackendURL)
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("config error: 'timeout_sec' must be non-negative")
	}

	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: static dir not found: %s", c.StaticDir)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: static dir is not a directory: %s", c.StaticDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.BackendURL == "" {
		result.BackendURL = defaults.BackendURL
	}
	if result.Token == "" {
		result.Token = defaults.Token
	}
	if result.StaticDir == "" {
		result.StaticDir = defaults.StaticDir
	}
	if result.StateDB == "" {
		result.StateDB = defaults.StateDB
	}
	if result.Theme == "" {
		result.Theme = defaults.Theme
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.TimeoutSec == 0 {
		result.TimeoutSec = defaults.TimeoutSec
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Timeout returns the request timeout as a duration, applying the default
// when unset.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return time.Duration(DefaultTimeoutSec) * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}
