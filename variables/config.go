package variables

import (
	"fmt"

	"github.com/kbukum/spindle/redis"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendEnv    = "env"
	BackendRedis  = "redis"
)

// Config selects and configures the variable store.
type Config struct {
	Backend string            `mapstructure:"backend"`
	Values  map[string]string `mapstructure:"values"`
	Redis   redis.Config      `mapstructure:"redis"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Backend == BackendRedis {
		c.Redis.ApplyDefaults()
	}
}

// Validate checks the backend name.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendEnv:
		return nil
	case BackendRedis:
		return c.Redis.Validate()
	default:
		return fmt.Errorf("variables: unsupported backend %q", c.Backend)
	}
}
