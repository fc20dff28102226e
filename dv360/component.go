package dv360

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/kbukum/spindle/component"
)

// Component creates both DV360 clients on Start.
type Component struct {
	cfg     Config
	opts    []option.ClientOption
	reports *ReportClient
	sdf     *SDFClient
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a DV360 component. opts are passed to both clients.
func NewComponent(cfg Config, opts ...option.ClientOption) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string { return "dv360" }

// Start creates the report and SDF clients.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	reports, err := NewReportClient(ctx, c.cfg, c.opts...)
	if err != nil {
		return err
	}
	sdf, err := NewSDFClient(ctx, c.cfg, c.opts...)
	if err != nil {
		return err
	}
	c.reports, c.sdf = reports, sdf
	return nil
}

// Stop drops the clients. The underlying HTTP clients hold no resources
// that need closing.
func (c *Component) Stop(_ context.Context) error {
	c.reports, c.sdf = nil, nil
	return nil
}

// Health reports whether the clients exist.
func (c *Component) Health(_ context.Context) component.Health {
	if c.reports == nil || c.sdf == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "clients not initialized"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns component description for the bootstrap summary.
func (c *Component) Describe() component.Description {
	creds := "adc"
	if c.cfg.CredentialsFile != "" {
		creds = "file"
	}
	return component.Description{
		Name:    "DV360",
		Type:    "dv360",
		Details: fmt.Sprintf("credentials=%s rate=%.1f/s", creds, c.cfg.RateLimit.Rate),
	}
}

// Reports returns the report client. Must be called after Start().
func (c *Component) Reports() *ReportClient { return c.reports }

// SDF returns the SDF client. Must be called after Start().
func (c *Component) SDF() *SDFClient { return c.sdf }
