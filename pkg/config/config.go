package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for museme-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis cache configuration (optional)
	Redis RedisConfig `yaml:"redis"`

	// Object storage for sample audio (optional)
	Storage StorageConfig `yaml:"storage"`

	// External generation API configuration
	Generation GenerationConfig `yaml:"generation"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"museme"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"museme_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis cache configuration.
// Leave Host empty to run without a cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// StorageConfig holds MinIO/S3 object storage configuration for sample audio.
// Leave Endpoint empty to skip presigned playback URLs.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:""`
	AccessKey string `yaml:"-" env:"MINIO_ACCESS_KEY"` // Secret - not in YAML
	SecretKey string `yaml:"-" env:"MINIO_SECRET_KEY"` // Secret - not in YAML
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"museme-samples"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

// GenerationConfig holds settings for the external text-generation API.
type GenerationConfig struct {
	// Provider selects the API backend: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"GENERATION_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL for OpenAI-compatible providers.
	Endpoint string `yaml:"endpoint" env:"GENERATION_ENDPOINT" env-default:"https://api.openai.com/v1"`

	// Model is the model identifier passed on every call.
	Model string `yaml:"model" env:"GENERATION_MODEL" env-default:"gpt-4o-mini"`

	// FallbackKeysStr is a comma-separated list of API keys merged into the
	// credential pool behind the database-managed keys.
	FallbackKeysStr string `yaml:"-" env:"GENERATION_API_KEYS"` // Secret - not in YAML

	// FallbackKeys is the parsed form of FallbackKeysStr.
	FallbackKeys []string `yaml:"-"`

	// MaxRetriesPerCredential bounds dispatch retries: the total attempt
	// budget is this value times the pool size at dispatch start.
	MaxRetriesPerCredential int `yaml:"max_retries_per_credential" env:"GENERATION_MAX_RETRIES" env-default:"3"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Missing config.yaml is not an error; env defaults apply.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.Generation.FallbackKeys = parseFallbackKeys(cfg.Generation.FallbackKeysStr)

	return cfg, nil
}

// parseFallbackKeys splits the comma-separated key list, dropping empties.
func parseFallbackKeys(value string) []string {
	if value == "" {
		return nil
	}

	var keys []string
	for _, k := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
