package notify

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/kbukum/spindle/component"
)

// Component manages the Publisher lifecycle.
type Component struct {
	cfg     Config
	opts    []option.ClientOption
	project func(ctx context.Context) (string, error)
	pub     *Publisher
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a notification component.
func NewComponent(cfg Config, opts ...option.ClientOption) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, opts: opts}
}

// ProjectFrom sets the lookup used by Start when cfg.Project is empty.
func (c *Component) ProjectFrom(fn func(ctx context.Context) (string, error)) *Component {
	c.project = fn
	return c
}

func (c *Component) Name() string { return "notify" }

// Start creates the publisher.
func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Project == "" && c.project != nil {
		p, err := c.project(ctx)
		if err != nil {
			return err
		}
		c.cfg.Project = p
	}
	pub, err := NewPublisher(ctx, c.cfg, c.opts...)
	if err != nil {
		return err
	}
	c.pub = pub
	return nil
}

// Stop flushes and closes the publisher.
func (c *Component) Stop(_ context.Context) error {
	if c.pub == nil {
		return nil
	}
	err := c.pub.Close()
	c.pub = nil
	return err
}

func (c *Component) Health(_ context.Context) component.Health {
	if c.pub == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "publisher not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Run notifications",
		Type:    "pubsub",
		Details: fmt.Sprintf("topic=projects/%s/topics/%s", c.cfg.Project, c.cfg.Topic),
	}
}

// Publisher returns the publisher. Must be called after Start().
func (c *Component) Publisher() *Publisher { return c.pub }
