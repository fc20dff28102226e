package warehouse

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/kbukum/spindle/component"
)

// Component manages the BigQuery client lifecycle.
type Component struct {
	cfg     Config
	opts    []option.ClientOption
	project func(ctx context.Context) (string, error)
	bq      *BigQuery
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a warehouse component.
func NewComponent(cfg Config, opts ...option.ClientOption) *Component {
	return &Component{cfg: cfg, opts: opts}
}

// ProjectFrom sets the lookup used by Start when cfg.Project is empty.
func (c *Component) ProjectFrom(fn func(ctx context.Context) (string, error)) *Component {
	c.project = fn
	return c
}

// Name returns the component name.
func (c *Component) Name() string { return "warehouse" }

// Start creates the BigQuery client.
func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Project == "" && c.project != nil {
		p, err := c.project(ctx)
		if err != nil {
			return err
		}
		c.cfg.Project = p
	}
	bq, err := NewBigQuery(ctx, c.cfg, c.opts...)
	if err != nil {
		return err
	}
	c.bq = bq
	return nil
}

// Stop closes the BigQuery client.
func (c *Component) Stop(_ context.Context) error {
	if c.bq == nil {
		return nil
	}
	err := c.bq.Close()
	c.bq = nil
	return err
}

// Health reports whether the client exists.
func (c *Component) Health(_ context.Context) component.Health {
	if c.bq == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "client not initialized"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns component description for the bootstrap summary.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("project=%s", c.cfg.Project)
	if c.cfg.Location != "" {
		details += " location=" + c.cfg.Location
	}
	return component.Description{Name: "BigQuery", Type: "warehouse", Details: details}
}

// BigQuery returns the client. Must be called after Start().
func (c *Component) BigQuery() *BigQuery { return c.bq }
