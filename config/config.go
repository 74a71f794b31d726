package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port        string `env:"PORT,default=5000"`
	DatabaseURL string `env:"DATABASE_URL,default=sqlite://stockadoodle.db"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=60s"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES,default=10485760"`

	// RedisAddr enables the leaderboard cache when set.
	RedisAddr           string        `env:"REDIS_ADDR"`
	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL,default=30s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
