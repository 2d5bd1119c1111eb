package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Log modes understood by observability.NewLogger
const (
	LogModeDevelopment = "development"
	LogModeProduction  = "production"
)

// ServerConfig is the HTTP server configuration, read from the environment.
type ServerConfig struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	// GeminiAPIKey is the fallback credential. Requests may bring their own key.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret          string `env:"JWT_SECRET"`
	JWTExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`

	LogMode string `env:"LOG_MODE" envDefault:"development"`

	ModelLite         string  `env:"MODEL_LITE"`
	ModelStandard     string  `env:"MODEL_STANDARD"`
	ModelAdvanced     string  `env:"MODEL_ADVANCED"`
	OracleTemperature float32 `env:"ORACLE_TEMPERATURE" envDefault:"0.1"`

	OracleCacheSize     int           `env:"ORACLE_CACHE_SIZE" envDefault:"256"`
	OracleCacheTTL      time.Duration `env:"ORACLE_CACHE_TTL" envDefault:"5m"`
	OracleRatePerMinute int           `env:"ORACLE_RATE_PER_MINUTE" envDefault:"30"`
	OracleRateBurst     int           `env:"ORACLE_RATE_BURST" envDefault:"5"`

	MergeLockTTL      time.Duration `env:"MERGE_LOCK_TTL" envDefault:"2m"`
	EnrichConcurrency int           `env:"ENRICH_CONCURRENCY" envDefault:"4"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	GitHubAPIBase  string        `env:"GITHUB_API_BASE" envDefault:"https://api.github.com"`
	GitHubCacheTTL time.Duration `env:"GITHUB_CACHE_TTL" envDefault:"5m"`
}

// LoadServerConfig reads the server configuration from the process environment
func LoadServerConfig() (*ServerConfig, error) {
	return parseServerConfig(env.Options{})
}

// LoadServerConfigFrom reads the server configuration from vars instead of the environment
func LoadServerConfigFrom(vars map[string]string) (*ServerConfig, error) {
	return parseServerConfig(env.Options{Environment: vars})
}

func parseServerConfig(opts env.Options) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Missing optional services are reported by the
// components that need them.
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got: %d", c.Port)
	}
	if c.OracleCacheSize < 0 {
		return fmt.Errorf("ORACLE_CACHE_SIZE must be non-negative, got: %d", c.OracleCacheSize)
	}
	if c.OracleRatePerMinute < 0 {
		return fmt.Errorf("ORACLE_RATE_PER_MINUTE must be non-negative, got: %d", c.OracleRatePerMinute)
	}
	if c.OracleTemperature < 0 || c.OracleTemperature > 2 {
		return fmt.Errorf("ORACLE_TEMPERATURE must be between 0 and 2, got: %g", c.OracleTemperature)
	}
	if c.EnrichConcurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be at least 1, got: %d", c.EnrichConcurrency)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got: %d", c.MaxUploadBytes)
	}
	switch c.LogMode {
	case LogModeDevelopment, LogModeProduction:
	default:
		return fmt.Errorf("LOG_MODE must be %q or %q, got: %q", LogModeDevelopment, LogModeProduction, c.LogMode)
	}
	return nil
}

// JWT returns the token configuration carried by the server config
func (c *ServerConfig) JWT() (*JWTConfig, error) {
	cfg := &JWTConfig{Secret: c.JWTSecret, ExpirationHours: c.JWTExpirationHours}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
