package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/spindle/component"
	"github.com/kbukum/spindle/logger"
)

// healthObject is probed by Health. It does not need to exist.
const healthObject = ".spindle-health"

// Component wraps Storage and implements component.Component for lifecycle management.
type Component struct {
	storage     Storage
	cfg         Config
	providerCfg any
	bucket      func(ctx context.Context) (string, error)
	log         *logger.Logger
}

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, providerCfg any, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Get("storage")
	}
	return &Component{
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent("storage"),
	}
}

// Storage returns the underlying Storage, or nil if not started.
func (c *Component) Storage() Storage {
	return c.storage
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// BucketFrom sets the lookup used by Start when a bucket-based provider has
// no bucket configured.
func (c *Component) BucketFrom(fn func(ctx context.Context) (string, error)) *Component {
	c.bucket = fn
	return c
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start initializes the storage backend.
func (c *Component) Start(ctx context.Context) error {
	c.cfg.ApplyDefaults()
	if c.cfg.Bucket == "" && c.cfg.Provider != ProviderLocal && c.bucket != nil {
		b, err := c.bucket(ctx)
		if err != nil {
			return fmt.Errorf("storage start: %w", err)
		}
		c.cfg.Bucket = b
	}
	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

// Stop closes the backend client if it holds one.
func (c *Component) Stop(_ context.Context) error {
	s := c.storage
	c.storage = nil
	if closer, ok := s.(Closer); ok {
		return closer.Close()
	}
	return nil
}

// Health checks that the backend answers an existence probe.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "storage not initialized",
		}
	}
	if _, err := c.storage.Exists(ctx, healthObject); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	cfg := c.cfg
	cfg.ApplyDefaults()
	details := fmt.Sprintf("provider=%s", cfg.Provider)

	bucket := cfg.Bucket
	if bp, ok := c.providerCfg.(BucketDescriber); ok && bp.GetBucket() != "" {
		bucket = bp.GetBucket()
	}
	if bucket != "" {
		details += fmt.Sprintf(" bucket=%s", bucket)
	}
	if cfg.Provider == ProviderLocal {
		details += fmt.Sprintf(" path=%s", cfg.BasePath)
	}

	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}

// BucketDescriber is optionally implemented by provider configs that use a bucket.
type BucketDescriber interface {
	GetBucket() string
}
