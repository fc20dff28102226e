package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/spindle/component"
	"github.com/kbukum/spindle/resilience"
)

// Component wraps a Client with lifecycle management.
type Component struct {
	client *Client
	config Config
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new HTTP client component.
// The client is created in Start().
func NewComponent(cfg Config) *Component {
	return &Component{config: cfg}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return "http"
	}
	return c.config.Name
}

// Start creates the client.
func (c *Component) Start(_ context.Context) error {
	client, err := New(c.config)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(_ context.Context) error {
	if c.client != nil {
		c.client.httpClient.CloseIdleConnections()
	}
	return nil
}

// Health reports unhealthy before Start and while the breaker is open.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.client == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case c.client.cb != nil && c.client.cb.State() == resilience.StateOpen:
		h.Status = component.StatusDegraded
		h.Message = "circuit open"
	}
	return h
}

// Describe returns component description for the bootstrap summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http",
		Details: fmt.Sprintf("timeout=%s retries=%d", c.config.Timeout, c.config.Retries),
	}
}

// Client returns the underlying client. Must be called after Start().
func (c *Component) Client() *Client {
	return c.client
}
