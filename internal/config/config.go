// ABOUTME: Configuration loading and parsing for the driftsync client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete driftsync client configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Client   ClientConfig   `yaml:"client"`
	Sync     SyncConfig     `yaml:"sync"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds the accounts database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ClientConfig holds client-level identity settings.
type ClientConfig struct {
	// Name is reported to the server as this machine's name. Empty means
	// the OS hostname.
	Name string `yaml:"name"`
}

// ComputerName returns the configured client name, falling back to the OS
// hostname.
func (c ClientConfig) ComputerName() string {
	if c.Name != "" {
		return c.Name
	}
	host, err := os.Hostname()
	if err != nil {
		return "driftsync-client"
	}
	return host
}

// SyncConfig holds capability refresh timing configuration.
type SyncConfig struct {
	RefreshInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RefreshIntervalRaw string `yaml:"refresh_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultRefreshInterval is used when sync.refresh_interval is not set.
const DefaultRefreshInterval = 10 * time.Minute

// DefaultPath returns the conventional location of the config file,
// ~/.config/driftsync/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "driftsync", "config.yaml"), nil
}

// DefaultDatabasePath returns the conventional location of the accounts
// database.
func DefaultDatabasePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "driftsync", "accounts.db"), nil
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	dbPath, err := DefaultDatabasePath()
	if err != nil {
		return nil, err
	}
	return &Config{
		Database: DatabaseConfig{Path: dbPath},
		Sync:     SyncConfig{RefreshInterval: DefaultRefreshInterval},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}, nil
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. If the environment variable is not set, it is
// replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure
// encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Sync.RefreshIntervalRaw == "" {
		cfg.Sync.RefreshInterval = DefaultRefreshInterval
		return nil
	}

	d, err := time.ParseDuration(cfg.Sync.RefreshIntervalRaw)
	if err != nil {
		return fmt.Errorf("parsing refresh_interval %q: %w", cfg.Sync.RefreshIntervalRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %q", cfg.Sync.RefreshIntervalRaw)
	}
	cfg.Sync.RefreshInterval = d
	return nil
}
