package config

import "time"

// APIConfig holds SpaceTraders API client configuration
type APIConfig struct {
	// Base URL for SpaceTraders API
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Account token used to register new agents (per-agent tokens are
	// stored per player and must never appear in logs)
	Token string `mapstructure:"token"`

	// Rate limiting settings
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Request timeout
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// Circuit breaker for repeated upstream failures
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum requests per second
	Requests int `mapstructure:"requests" validate:"min=1"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}

// CircuitBreakerConfig holds circuit breaker configuration.
// The client itself never retries; callers decide what to do with a
// tripped breaker or a transient error.
type CircuitBreakerConfig struct {
	// Enable the breaker
	Enabled bool `mapstructure:"enabled"`

	// Consecutive transient failures before the breaker opens
	FailureThreshold int `mapstructure:"failure_threshold" validate:"min=1"`

	// How long the breaker stays open before allowing a probe request
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}
