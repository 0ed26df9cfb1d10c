// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Checkpoint backend names accepted by Config.CheckpointBackend.
const (
	BackendFile = "file"
	BackendDB   = "db"
)

// Config holds all application configuration for one harvest run.
type Config struct {
	// CredentialsFile is the OAuth client secrets JSON file.
	CredentialsFile string `json:"credentials_file"`
	// TokenFile caches the OAuth token between runs.
	TokenFile string `json:"token_file"`
	// DatabaseFile is the SQLite database receiving harvested videos.
	DatabaseFile string `json:"database_file"`
	// CheckpointFile holds processed channel IDs, one per line. Used when
	// CheckpointBackend is "file".
	CheckpointFile string `json:"checkpoint_file"`
	// CheckpointBackend selects where the processed-channel set lives:
	// "file" or "db" (a table in DatabaseFile).
	CheckpointBackend string `json:"checkpoint_backend"`
	// LogFile receives a copy of all log output.
	LogFile string `json:"log_file"`
	// WindowDays is the trailing publication window for video search.
	WindowDays int `json:"window_days"`
	// VideosPerSecond is the pacing rate between statistics lookups.
	VideosPerSecond float64 `json:"videos_per_second"`
	// PagesPerSecond is the pacing rate between search pages of one channel.
	PagesPerSecond float64 `json:"pages_per_second"`
}

// DefaultConfig returns configuration matching the collector's historical
// file names and pacing.
func DefaultConfig() *Config {
	return &Config{
		CredentialsFile:   "client_secret.json",
		TokenFile:         "token.json",
		DatabaseFile:      "youtube_data.db",
		CheckpointFile:    "processed_channels.txt",
		CheckpointBackend: BackendFile,
		LogFile:           "ytharvest.log",
		WindowDays:        365,
		VideosPerSecond:   10,
		PagesPerSecond:    0.1,
	}
}

// Load loads configuration from environment variables, config file, and
// applies defaults. Priority: env vars > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile attempts to load config from ytharvest.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytharvest.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytharvest", "ytharvest.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTHARVEST_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("YTHARVEST_TOKEN_FILE"); v != "" {
		c.TokenFile = v
	}
	if v := os.Getenv("YTHARVEST_DATABASE_FILE"); v != "" {
		c.DatabaseFile = v
	}
	if v := os.Getenv("YTHARVEST_CHECKPOINT_FILE"); v != "" {
		c.CheckpointFile = v
	}
	if v := os.Getenv("YTHARVEST_CHECKPOINT_BACKEND"); v != "" {
		c.CheckpointBackend = v
	}
	if v := os.Getenv("YTHARVEST_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("YTHARVEST_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WindowDays = n
		}
	}
	if v := os.Getenv("YTHARVEST_VIDEOS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.VideosPerSecond = f
		}
	}
	if v := os.Getenv("YTHARVEST_PAGES_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PagesPerSecond = f
		}
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials_file must be set")
	}
	if c.DatabaseFile == "" {
		return fmt.Errorf("database_file must be set")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	if c.VideosPerSecond <= 0 {
		return fmt.Errorf("videos_per_second must be positive")
	}
	if c.PagesPerSecond <= 0 {
		return fmt.Errorf("pages_per_second must be positive")
	}
	switch c.CheckpointBackend {
	case BackendFile:
		if c.CheckpointFile == "" {
			return fmt.Errorf("checkpoint_file must be set for the file backend")
		}
	case BackendDB:
	default:
		return fmt.Errorf("checkpoint_backend must be %q or %q", BackendFile, BackendDB)
	}
	return nil
}
