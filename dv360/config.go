package dv360

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"

	"github.com/kbukum/spindle/resilience"
)

const (
	defaultSDFPollInterval = 30 * time.Second
	defaultSDFTimeout      = time.Hour
)

// Config configures the DV360 clients.
type Config struct {
	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string `mapstructure:"credentials_file"`

	// TemplatesDir overrides the embedded report definitions.
	TemplatesDir string `mapstructure:"templates_dir"`

	// ReportsEndpoint and SDFEndpoint override the API base URLs.
	ReportsEndpoint string `mapstructure:"reports_endpoint"`
	SDFEndpoint     string `mapstructure:"sdf_endpoint"`

	// SDFPollInterval is the wait between SDF task status checks.
	SDFPollInterval time.Duration `mapstructure:"sdf_poll_interval"`
	// SDFTimeout bounds a single SDF download task.
	SDFTimeout time.Duration `mapstructure:"sdf_timeout"`

	// RateLimit throttles API calls per client.
	RateLimit resilience.RateLimiterConfig `mapstructure:"rate_limit"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.SDFPollInterval <= 0 {
		c.SDFPollInterval = defaultSDFPollInterval
	}
	if c.SDFTimeout <= 0 {
		c.SDFTimeout = defaultSDFTimeout
	}
	if c.RateLimit.Rate <= 0 {
		c.RateLimit.Rate = 1
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SDFPollInterval > c.SDFTimeout {
		return fmt.Errorf("dv360: sdf_poll_interval %s exceeds sdf_timeout %s", c.SDFPollInterval, c.SDFTimeout)
	}
	return nil
}

func (c *Config) clientOptions(endpoint string, extra []option.ClientOption) []option.ClientOption {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return append(opts, extra...)
}

func (c *Config) limiter(name string) *resilience.RateLimiter {
	rl := c.RateLimit
	rl.Name = name
	return resilience.NewRateLimiter(rl)
}

// wait blocks on rl, reporting cancellation as a plain context error.
func wait(ctx context.Context, rl *resilience.RateLimiter) error {
	if rl == nil {
		return nil
	}
	return rl.Wait(ctx)
}
