package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	return configPath
}

// validConfigYAML is a complete valid configuration.
const validConfigYAML = `
model:
  path: "/srv/models/model.yaml"
schema:
  path: "/srv/models/schema.yaml"
  unknown_category: "reject"
output:
  label_column: "is_canceled"
  format: "csv"
  confidence: true
server:
  addr: "127.0.0.1:9090"
  max_upload_mb: 25
  read_timeout_sec: 5
logging:
  level: "debug"
  format: "json"
`

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "/srv/models/model.yaml", cfg.Model.Path)
	assert.Equal(t, "reject", cfg.Schema.UnknownCategory)
	assert.Equal(t, "is_canceled", cfg.Output.LabelColumn)
	assert.True(t, cfg.Output.Confidence)
	assert.Equal(t, int64(25<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(createTempConfigFile(t, "logging:\n  level: warn\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, def.Model.Path, cfg.Model.Path)
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, def.Output.LabelColumn, cfg.Output.LabelColumn)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(createTempConfigFile(t, "invalid: yaml: content: [}"))
	require.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	_, err := LoadConfig(createTempConfigFile(t, "output:\n  format: xlsx\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOutputFormat))
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"missing model path", func(c *Config) { c.Model.Path = " " }, ErrMissingModelPath},
		{"missing schema path", func(c *Config) { c.Schema.Path = "" }, ErrMissingSchemaPath},
		{"bad policy", func(c *Config) { c.Schema.UnknownCategory = "ignore" }, ErrInvalidUnknownPolicy},
		{"missing label column", func(c *Config) { c.Output.LabelColumn = "" }, ErrMissingLabelColumn},
		{"bad output format", func(c *Config) { c.Output.Format = "xml" }, ErrInvalidOutputFormat},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, ErrMissingServerAddr},
		{"bad upload limit", func(c *Config) { c.Server.MaxUploadMb = 0 }, ErrInvalidMaxUpload},
		{"bad read timeout", func(c *Config) { c.Server.ReadTimeoutSec = 0 }, ErrInvalidReadTimeout},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "json"

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_String(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "configs/model.yaml")
	assert.Contains(t, s, ":8080")
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
