// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath  = "config.toml"
	DefaultHTTPAddr    = ":8080"
	DefaultBranch      = "main"
	DefaultMaxAttempts = 3
	DefaultBackoffMs   = 500
	DefaultMaxBytes    = 10 << 20
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	GitHub GitHubConfig `toml:"github"`
	Upload UploadConfig `toml:"upload"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address and the optional static API key
// guarding the paste gateway. An empty key leaves the gateway open.
type ServerConfig struct {
	Addr   string `toml:"addr"`
	APIKey string `toml:"api_key"`
}

// GitHubConfig identifies the destination repository branch and the token
// used against the GitHub API. The token may carry either a classic or a
// fine-grained PAT; the client negotiates the header scheme at call time.
type GitHubConfig struct {
	Token  string `toml:"token"`
	Owner  string `toml:"owner"`
	Repo   string `toml:"repo"`
	Branch string `toml:"branch"`
}

// UploadConfig holds retry and payload limits for the upload pipeline.
type UploadConfig struct {
	MaxAttempts int   `toml:"max_attempts"`
	BackoffMs   int   `toml:"backoff_ms"`
	MaxBytes    int64 `toml:"max_bytes"`
}

// Backoff returns the base wait between retry attempts.
func (c UploadConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMs) * time.Millisecond
}

// ValidationError reports a missing or malformed configuration field.
// It is checked once per batch, before any network activity, and never retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: github.%s is required", e.Field)
}

// Validate checks that every field needed for an upload is present.
func (c GitHubConfig) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return &ValidationError{Field: "token"}
	}
	if strings.TrimSpace(c.Owner) == "" {
		return &ValidationError{Field: "owner"}
	}
	if strings.TrimSpace(c.Repo) == "" {
		return &ValidationError{Field: "repo"}
	}
	if strings.TrimSpace(c.Branch) == "" {
		return &ValidationError{Field: "branch"}
	}
	return nil
}

// Load reads and parses the TOML config file at path, applies default values
// for missing fields, and applies environment overrides (GITPIX_TOKEN, HTTP_ADDR).
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		GitHub: GitHubConfig{
			Branch: DefaultBranch,
		},
		Upload: UploadConfig{
			MaxAttempts: DefaultMaxAttempts,
			BackoffMs:   DefaultBackoffMs,
			MaxBytes:    DefaultMaxBytes,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if value := os.Getenv("GITPIX_TOKEN"); value != "" {
		cfg.GitHub.Token = value
	}
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		cfg.Server.Addr = value
	}
}
