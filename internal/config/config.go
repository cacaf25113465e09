// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	AI        AIConfig
	Storage   StorageConfig
	Pipeline  PipelineConfig
	Recommend RecommendConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the relational store configuration.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// AuthConfig holds token issuer configuration.
type AuthConfig struct {
	// SigningKey is the HS256 secret used to sign access tokens.
	SigningKey string
	Issuer     string
	Audience   string
	// TokenDuration is the access token lifetime.
	TokenDuration time.Duration
}

// AIConfig holds the AI provider client configuration.
type AIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RPS bounds outbound calls to the provider.
	RPS   float64
	Burst int
}

// StorageConfig holds the external file storage (S3-compatible) configuration.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// PipelineConfig holds the story-enrichment orchestrator configuration.
type PipelineConfig struct {
	// PollInterval is the sleep between orchestrator cycles.
	PollInterval time.Duration
}

// RecommendConfig holds the recommendation aggregator configuration.
type RecommendConfig struct {
	// Interval is the sleep between aggregation cycles.
	Interval time.Duration
}

// LoadConfig loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	port := flag.String("port", "", "Server port (default: 8080)")
	dbPath := flag.String("db-path", "", "SQLite database file path")
	aiBaseURL := flag.String("ai-base-url", "", "AI provider base URL")
	pollInterval := flag.String("poll-interval", "", "Pipeline poll interval (default: 30s)")
	recommendInterval := flag.String("recommend-interval", "", "Recommendation aggregation interval (default: 1h)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*port, "SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DATABASE_PATH", "fairytale.db"),
		},
		Auth: AuthConfig{
			SigningKey: getConfigValue("", "JWT_SIGNING_KEY", ""),
			Issuer:     getConfigValue("", "JWT_ISSUER", "fairytale-server"),
			Audience:   getConfigValue("", "JWT_AUDIENCE", "fairytale-client"),
		},
		AI: AIConfig{
			BaseURL: getConfigValue(*aiBaseURL, "AI_BASE_URL", ""),
			APIKey:  getConfigValue("", "AI_API_KEY", ""),
			RPS:     getFloatConfigValue("", "AI_RPS", 2.0),
			Burst:   getIntConfigValue("", "AI_BURST", 4),
		},
		Storage: StorageConfig{
			Endpoint:  getConfigValue("", "STORAGE_ENDPOINT", ""),
			Region:    getConfigValue("", "STORAGE_REGION", "us-east-1"),
			Bucket:    getConfigValue("", "STORAGE_BUCKET", "fairytale-files"),
			AccessKey: getConfigValue("", "STORAGE_ACCESS_KEY", ""),
			SecretKey: getConfigValue("", "STORAGE_SECRET_KEY", ""),
		},
	}

	var err error
	if cfg.Auth.TokenDuration, err = parseDurationValue("", "JWT_TOKEN_DURATION", "168h"); err != nil {
		return nil, err
	}
	if cfg.AI.Timeout, err = parseDurationValue("", "AI_TIMEOUT", "120s"); err != nil {
		return nil, err
	}
	if cfg.Pipeline.PollInterval, err = parseDurationValue(*pollInterval, "PIPELINE_POLL_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	if cfg.Recommend.Interval, err = parseDurationValue(*recommendInterval, "RECOMMEND_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDurationValue("", "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue("", "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue("", "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if c.Auth.SigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required")
	}
	if len(c.Auth.SigningKey) < 32 {
		return errors.New("JWT_SIGNING_KEY must be at least 32 characters")
	}
	if c.AI.BaseURL == "" {
		return errors.New("AI_BASE_URL is required")
	}
	if c.Pipeline.PollInterval <= 0 {
		return errors.New("pipeline poll interval must be positive")
	}
	if c.Recommend.Interval <= 0 {
		return errors.New("recommendation interval must be positive")
	}

	return nil
}

// getConfigValue returns the first non-empty value of: flag, env var, default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return defaultValue
	}
	return v
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return defaultValue
	}
	return v
}

func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}
