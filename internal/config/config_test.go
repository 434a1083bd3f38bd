package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEPOSILY_CONFIG", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "deposily.db", cfg.Database.Path)
	assert.Equal(t, "gemini-2.0-flash-001", cfg.Gemini.Model)
	assert.Equal(t, 2*time.Minute, cfg.Extraction.Timeout)
	assert.Equal(t, 2, cfg.Extraction.MaxAttempts)
	assert.True(t, cfg.Reconciliation.OwnerScoped)
	assert.Empty(t, cfg.Storage.Bucket)
	assert.Empty(t, cfg.BigQuery.Project)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEPOSILY_CONFIG", "")
	t.Setenv("DEPOSILY_SERVER_PORT", "9090")
	t.Setenv("DEPOSILY_EXTRACTION_MAX_ATTEMPTS", "3")
	t.Setenv("DEPOSILY_APP_TIMEZONE", "Europe/London")
	t.Setenv("DEPOSILY_RECONCILIATION_OWNER_SCOPED", "false")
	t.Setenv("GEMINI_API_KEY", "from-google-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Extraction.MaxAttempts)
	assert.Equal(t, "Europe/London", cfg.App.Timezone)
	assert.False(t, cfg.Reconciliation.OwnerScoped)
	assert.Equal(t, "from-google-env", cfg.Gemini.APIKey)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "deposily.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: /tmp/x.db\nstorage:\n  bucket: raw-statements\n"), 0o600))
	t.Setenv("DEPOSILY_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "raw-statements", cfg.Storage.Bucket)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database:   DatabaseConfig{Path: "x.db"},
		Extraction: ExtractionConfig{Timeout: time.Second, MaxAttempts: 1},
		App:        AppConfig{Timezone: "UTC"},
		Log:        LogConfig{Format: "json"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Database.Path = " " }},
		{"zero attempts", func(c *Config) { c.Extraction.MaxAttempts = 0 }},
		{"zero timeout", func(c *Config) { c.Extraction.Timeout = 0 }},
		{"bad timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
