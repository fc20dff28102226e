package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/spindle/resilience"
)

const (
	defaultTimeout   = 5 * time.Minute
	defaultUserAgent = "spindle"
)

// Config configures the HTTP client.
type Config struct {
	// Name identifies the client in logs, metrics and circuit breaker events.
	Name string `mapstructure:"name"`

	// Timeout bounds a buffered request. Streaming requests rely on the
	// context instead.
	Timeout time.Duration `mapstructure:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `mapstructure:"headers"`

	// Retries is the number of retries on a retryable error: a timeout, a
	// transport failure, a 429 or a 5xx. Zero disables retry.
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	CircuitBreaker BreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      LimitConfig   `mapstructure:"rate_limit"`
}

// BreakerConfig enables the circuit breaker when MaxFailures > 0.
type BreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// LimitConfig enables the rate limiter when Rate > 0.
type LimitConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Retries > 0 && c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.CircuitBreaker.MaxFailures > 0 && c.CircuitBreaker.Cooldown <= 0 {
		c.CircuitBreaker.Cooldown = 30 * time.Second
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("httpclient: retries must be >= 0")
	}
	if c.RateLimit.Rate < 0 {
		return fmt.Errorf("httpclient: rate_limit.rate must be >= 0")
	}
	return nil
}

func (c *Config) retryPolicy() resilience.RetryConfig {
	p := resilience.DefaultRetryConfig()
	p.MaxAttempts = c.Retries + 1
	p.Delay = c.RetryDelay
	p.RetryIf = IsRetryable
	return p
}
