package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// HTTP
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RateLimitPerMin int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER"`

	// Database
	PostgresDSN   string `env:"POSTGRES_DSN"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Geocoder
	GeocoderBaseURL string        `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
	GeocoderTimeout time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`

	// Feed
	FeedCandidateLimit int    `env:"FEED_CANDIDATE_LIMIT" envDefault:"100"`
	FeedPageSize       int    `env:"FEED_PAGE_SIZE" envDefault:"50"`
	CatalogRefreshSpec string `env:"CATALOG_REFRESH_SPEC" envDefault:"@every 15m"`

	// Telegram, optional
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is empty")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is empty")
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request timeout too small: %v", c.RequestTimeout)
	}

	if c.RateLimitPerMin < 1 {
		return fmt.Errorf("rate limit must be positive")
	}

	if c.FeedPageSize < 1 || c.FeedPageSize > c.FeedCandidateLimit {
		return fmt.Errorf("feed page size must be between 1 and the candidate limit (%d)", c.FeedCandidateLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.LogEncoding != "json" && c.LogEncoding != "console" {
		return fmt.Errorf("invalid log encoding: %s", c.LogEncoding)
	}

	return nil
}

// TelegramEnabled reports whether the bot should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
