package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config represents rate limiting configuration
type Config struct {
	// Requests allowed per client IP within Period
	Limit  int64
	Period time.Duration

	// Redis configuration. An empty address selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Prefix   string
	MaxRetry int

	// Paths that are never limited
	ExcludedPaths []string
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		Limit:    60,
		Period:   time.Minute,
		Prefix:   "helpdesk:ratelimit:",
		MaxRetry: 3,
		ExcludedPaths: []string{
			"/",
			"/health",
			"/metrics",
		},
	}
}

// Rate converts the configuration to a limiter.Rate
func (c *Config) Rate() limiter.Rate {
	return limiter.Rate{
		Period: c.Period,
		Limit:  c.Limit,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.Period <= 0 {
		return fmt.Errorf("rate limit period must be positive")
	}
	return nil
}
