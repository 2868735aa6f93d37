// Package config provides configuration management for the scoring service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingModelPath     = errors.New("model.path is required")
	ErrMissingSchemaPath    = errors.New("schema.path is required")
	ErrInvalidUnknownPolicy = errors.New("schema.unknown_category must be 'warn' or 'reject'")
	ErrMissingLabelColumn   = errors.New("output.label_column is required")
	ErrInvalidOutputFormat  = errors.New("output.format must be 'table', 'csv' or 'json'")
	ErrMissingServerAddr    = errors.New("server.addr is required")
	ErrInvalidMaxUpload     = errors.New("server.max_upload_mb must be at least 1")
	ErrInvalidReadTimeout   = errors.New("server.read_timeout_sec must be at least 1")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat     = errors.New("logging.format must be 'text' or 'json'")
)

// Config represents the complete service configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Schema  SchemaConfig  `yaml:"schema"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig locates the classifier artifact.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// SchemaConfig locates the schema artifact and sets the encoding policy.
type SchemaConfig struct {
	Path            string `yaml:"path"`
	UnknownCategory string `yaml:"unknown_category"`
}

// OutputConfig defines how scored batches are rendered.
type OutputConfig struct {
	LabelColumn string `yaml:"label_column"`
	Format      string `yaml:"format"`
	Confidence  bool   `yaml:"confidence"`
}

// ServerConfig defines the HTTP front end.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadMb    int    `yaml:"max_upload_mb"`
	ReadTimeoutSec int    `yaml:"read_timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model:  ModelConfig{Path: "configs/model.yaml"},
		Schema: SchemaConfig{Path: "configs/schema.yaml", UnknownCategory: "warn"},
		Output: OutputConfig{LabelColumn: "prediction", Format: "table"},
		Server: ServerConfig{Addr: ":8080", MaxUploadMb: 10, ReadTimeoutSec: 30},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file. Keys absent from the
// file keep their defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.Path) == "" {
		return ErrMissingModelPath
	}

	if strings.TrimSpace(c.Schema.Path) == "" {
		return ErrMissingSchemaPath
	}

	switch strings.ToLower(c.Schema.UnknownCategory) {
	case "", "warn", "reject":
	default:
		return ErrInvalidUnknownPolicy
	}

	// Validate output config
	if strings.TrimSpace(c.Output.LabelColumn) == "" {
		return ErrMissingLabelColumn
	}

	if !oneOf(c.Output.Format, "table", "csv", "json") {
		return ErrInvalidOutputFormat
	}

	// Validate server config
	if c.Server.Addr == "" {
		return ErrMissingServerAddr
	}

	if c.Server.MaxUploadMb < 1 {
		return ErrInvalidMaxUpload
	}

	if c.Server.ReadTimeoutSec < 1 {
		return ErrInvalidReadTimeout
	}

	// Validate logging config
	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		return ErrInvalidLogLevel
	}

	if !oneOf(c.Logging.Format, "text", "json") {
		return ErrInvalidLogFormat
	}

	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMb) << 20
}

// ReadTimeout returns the HTTP read timeout.
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Model: %s, Schema: %s, Policy: %s, Addr: %s}",
		c.Model.Path,
		c.Schema.Path,
		c.Schema.UnknownCategory,
		c.Server.Addr,
	)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}

	return false
}
