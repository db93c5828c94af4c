// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dallasopendata/incidents/internal/schema"
)

// AppTokenEnv is consulted when the config file sets no app token.
const AppTokenEnv = "SOCRATA_APP_TOKEN"

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	Dataset    DatasetConfig   `yaml:"dataset"`
	Snapshot   SnapshotConfig  `yaml:"snapshot"`
	RateLimits RateLimitConfig `yaml:"rate_limits"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port     int  `yaml:"port"`
	EnableUI bool `yaml:"enable_ui"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite
	Path   string `yaml:"path"`
}

// DatasetConfig selects the portal dataset by preset or explicit schema
// fields. A preset wins; with neither set the police incidents preset is used.
type DatasetConfig struct {
	schema.Spec    `yaml:",inline"`
	AppToken       string `yaml:"app_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       int    `yaml:"page_size"`
}

// Timeout returns the per-request portal timeout.
func (d DatasetConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Schema resolves the configured dataset schema.
func (d DatasetConfig) Schema() (schema.Schema, error) {
	spec := d.Spec
	if spec.Preset == "" && spec.DatasetID == "" {
		spec.Preset = schema.PresetPoliceIncidents
	}
	return spec.Build()
}

type SnapshotConfig struct {
	Preset    string `yaml:"preset"` // active calls feed to snapshot
	OutputDir string `yaml:"output_dir"`
	Limit     int    `yaml:"limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/incidents.db",
		},
		Dataset: DatasetConfig{
			TimeoutSeconds: 30,
			PageSize:       1000,
		},
		Snapshot: SnapshotConfig{
			Preset:    schema.PresetActiveCallsAll,
			OutputDir: "./docs/data",
			Limit:     500,
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run generate-config to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv fills the app token from the environment when the file leaves it
// empty or as an unresolved ${VAR} reference.
func (c *Config) ApplyEnv() {
	if unresolved(c.Dataset.AppToken) {
		c.Dataset.AppToken = ""
	}
	if c.Dataset.AppToken == "" {
		c.Dataset.AppToken = os.Getenv(AppTokenEnv)
	}
}

func unresolved(v string) bool {
	return envVarPattern.MatchString(v)
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# Dallas incidents configuration

server:
  port: 8080
  enable_ui: false

database:
  driver: sqlite
  path: ./data/incidents.db

dataset:
  preset: police_incidents  # police_incidents, active_calls_all, active_calls_northeast
  # domain: www.dallasopendata.com
  app_token: ${SOCRATA_APP_TOKEN}
  timeout_seconds: 30
  page_size: 1000

  # Custom dataset instead of a preset:
  # dataset_id: abcd-1234
  # location_field: geocoded_column
  # datetime_field: date1
  # beat_field: beat
  # division_field: division
  # offense_field: offincident
  # ucr_field: ucr_offense
  # extended_filters: true

snapshot:
  preset: active_calls_all
  output_dir: ./docs/data
  limit: 500

rate_limits:
  requests_per_minute: 60

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if _, err := c.Dataset.Schema(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if c.Dataset.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid dataset timeout: %d", c.Dataset.TimeoutSeconds)
	}
	if c.Dataset.PageSize < 0 {
		return fmt.Errorf("invalid dataset page size: %d", c.Dataset.PageSize)
	}

	if _, err := schema.FromPreset(c.Snapshot.Preset); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if c.Snapshot.Limit < 0 {
		return fmt.Errorf("invalid snapshot limit: %d", c.Snapshot.Limit)
	}

	if c.RateLimits.RequestsPerMinute < 0 {
		return fmt.Errorf("invalid requests per minute: %d", c.RateLimits.RequestsPerMinute)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if not set
	})
}
