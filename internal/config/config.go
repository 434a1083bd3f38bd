package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Gemini         GeminiConfig
	Extraction     ExtractionConfig
	Storage        StorageConfig
	BigQuery       BigQueryConfig
	App            AppConfig
	Reconciliation ReconciliationConfig
	Log            LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// GeminiConfig holds extraction model settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string
}

// ExtractionConfig bounds a single extraction call.
type ExtractionConfig struct {
	Timeout     time.Duration
	MaxAttempts int `mapstructure:"max_attempts"`
}

// StorageConfig enables archiving raw uploads to GCS when Bucket is set.
type StorageConfig struct {
	Bucket string
}

// BigQueryConfig enables extraction run analytics when Project is set.
type BigQueryConfig struct {
	Project string
	Dataset string
}

// AppConfig holds presentation and calendar settings.
type AppConfig struct {
	Timezone string
}

// ReconciliationConfig controls which transactions are candidates for matching.
type ReconciliationConfig struct {
	OwnerScoped bool `mapstructure:"owner_scoped"`
}

// LogConfig selects level and output format (console or json).
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from .env, an optional config file and the
// environment. Env var overrides use prefix DEPOSILY_.
func Load() (Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.path", "deposily.db")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash-001")
	v.SetDefault("extraction.timeout", 2*time.Minute)
	v.SetDefault("extraction.max_attempts", 2)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "deposily")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("reconciliation.owner_scoped", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("DEPOSILY_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	v.SetEnvPrefix("DEPOSILY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// GEMINI_API_KEY is the variable the Google SDKs document.
	if v.GetString("gemini.api_key") == "" {
		v.Set("gemini.api_key", os.Getenv("GEMINI_API_KEY"))
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path is required")
	}
	if c.Extraction.MaxAttempts < 1 {
		return fmt.Errorf("config: extraction.max_attempts must be at least 1, got %d", c.Extraction.MaxAttempts)
	}
	if c.Extraction.Timeout <= 0 {
		return fmt.Errorf("config: extraction.timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Location resolves App.Timezone; "Local" and "" mean the server timezone.
func (c Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
