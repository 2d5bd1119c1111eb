package ratelimit

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// EndpointConfig is the limit for one route. Paths ending in "/" match by prefix.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool             `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	DefaultLimit    int              `env:"RATE_LIMIT_DEFAULT_LIMIT" envDefault:"600"`
	DefaultWindow   time.Duration    `env:"RATE_LIMIT_DEFAULT_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration    `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	IdleTimeout     time.Duration    `env:"RATE_LIMIT_IDLE_TIMEOUT" envDefault:"1h"`
	Whitelist       []string         `env:"RATE_LIMIT_WHITELIST" envSeparator:","`
	Blacklist       []string         `env:"RATE_LIMIT_BLACKLIST" envSeparator:","`
	EndpointConfigs []EndpointConfig `env:"-"`
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit config: %w", err)
	}
	cfg.EndpointConfigs = DefaultEndpointConfigs()
	return cfg, nil
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Oracle-backed operations (strictest limits)
		{Path: "/memory/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/resumes", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/resumes/", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/repos", Method: "GET", Limit: 30, Window: time.Minute, Burst: 10},

		// Oracle-free writes
		{Path: "/memory/records", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/memory", Method: "PUT", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/resumes/", Method: "PUT", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/resumes/", Method: "DELETE", Limit: 120, Window: time.Minute, Burst: 20},

		// Reads use the default limit; /health and /metrics are unlimited
	}
}
