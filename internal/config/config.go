// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Identity
	UserID string `json:"user_id,omitempty"` // Profile owner for merge and serve commands

	// Paths
	Profile string `json:"profile,omitempty"` // Path to a memory profile JSON file
	OutDir  string `json:"out_dir,omitempty"` // Directory for command output

	// Behavior
	APIKey       string `json:"api_key,omitempty"`        // Gemini API key
	DatabaseURL  string `json:"database_url,omitempty"`   // PostgreSQL connection URL
	LogMode      string `json:"log_mode,omitempty"`       // "development" or "production"
	Concurrency  int    `json:"concurrency,omitempty"`    // Parallel file extractions
	MaxFileBytes int64  `json:"max_file_bytes,omitempty"` // Largest accepted upload
	Verbose      bool   `json:"verbose,omitempty"`        // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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

// Validate checks that the configuration has valid values. Required fields are
// checked by the individual commands after merging with flags.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.MaxFileBytes < 0 {
		return fmt.Errorf("config error: 'max_file_bytes' must be non-negative")
	}
	switch c.LogMode {
	case "", LogModeDevelopment, LogModeProduction:
	default:
		return fmt.Errorf("config error: 'log_mode' must be %q or %q, got %q", LogModeDevelopment, LogModeProduction, c.LogMode)
	}

	if c.Profile != "" {
		if _, err := os.Stat(c.Profile); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.Profile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.UserID == "" {
		result.UserID = defaults.UserID
	}
	if result.Profile == "" {
		result.Profile = defaults.Profile
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}
	if result.LogMode == "" {
		result.LogMode = LogModeDevelopment
	}

	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.MaxFileBytes == 0 {
		result.MaxFileBytes = defaults.MaxFileBytes
	}

	// Bools cannot distinguish unset from false; CLI flags always win.

	return result
}
