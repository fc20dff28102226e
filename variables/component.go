package variables

import (
	"context"
	"fmt"

	"github.com/kbukum/spindle/component"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/redis"
)

// Component opens the configured Store. Register it before the components
// whose settings fall back to variables.
type Component struct {
	cfg   Config
	log   *logger.Logger
	redis *redis.Component
	store Store
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a variables component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

func (c *Component) Name() string { return "variables" }

// Start opens the store. The redis backend connects and pings first.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	switch c.cfg.Backend {
	case BackendEnv:
		c.store = NewEnvStore()
	case BackendRedis:
		rc := redis.NewComponent(c.cfg.Redis, c.log)
		if err := rc.Start(ctx); err != nil {
			return err
		}
		c.redis = rc
		c.store = NewRedisStore(c.redis.Client())
	default:
		c.store = NewMemoryStore(c.cfg.Values)
	}
	return nil
}

// Stop closes the redis connection, if any.
func (c *Component) Stop(ctx context.Context) error {
	c.store = nil
	if c.redis == nil {
		return nil
	}
	err := c.redis.Stop(ctx)
	c.redis = nil
	return err
}

func (c *Component) Health(ctx context.Context) component.Health {
	if c.store == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "store not open"}
	}
	if c.redis != nil {
		h := c.redis.Health(ctx)
		h.Name = c.Name()
		return h
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	details := "backend=" + c.cfg.Backend
	switch c.cfg.Backend {
	case BackendMemory:
		details += fmt.Sprintf(" values=%d", len(c.cfg.Values))
	case BackendRedis:
		details += fmt.Sprintf(" addr=%s prefix=%s", c.cfg.Redis.Addr, c.cfg.Redis.KeyPrefix)
	}
	return component.Description{Name: "Variables", Type: "variables", Details: details}
}

// Store returns the open store. Must be called after Start().
func (c *Component) Store() Store { return c.store }

// Lookup returns a func reading name from the store, for components
// started after this one.
func (c *Component) Lookup(name string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if c.store == nil {
			return "", fmt.Errorf("variables: store not open, cannot read %s", name)
		}
		return c.store.Get(ctx, name)
	}
}
