package main

import (
	"github.com/kbukum/spindle/config"
	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/httpclient"
	"github.com/kbukum/spindle/notify"
	"github.com/kbukum/spindle/observability"
	"github.com/kbukum/spindle/server"
	"github.com/kbukum/spindle/spindle"
	"github.com/kbukum/spindle/storage"
	"github.com/kbukum/spindle/util"
	"github.com/kbukum/spindle/validation"
	"github.com/kbukum/spindle/variables"
	"github.com/kbukum/spindle/version"
	"github.com/kbukum/spindle/warehouse"
)

const serviceName = "spindle"

// Config is the spindle command configuration, read from config.yml,
// .env and SPINDLE_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	DAG           DAGConfig            `yaml:"dag" mapstructure:"dag"`
	Variables     variables.Config     `yaml:"variables" mapstructure:"variables"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	DV360         dv360.Config         `yaml:"dv360" mapstructure:"dv360"`
	Warehouse     warehouse.Config     `yaml:"warehouse" mapstructure:"warehouse"`
	HTTPClient    httpclient.Config    `yaml:"httpclient" mapstructure:"httpclient"`
	Notify        notify.Config        `yaml:"notify" mapstructure:"notify"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// DAGConfig tunes graph construction and execution.
type DAGConfig struct {
	// MaxParallel bounds concurrent tasks per level, 0 is unlimited.
	MaxParallel     int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	spindle.Options `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	c.Name = util.Coalesce(c.Name, serviceName)
	c.Version = util.Coalesce(c.Version, version.Get().Short())
	c.ServiceConfig.ApplyDefaults()
	c.DAG.Options.ApplyDefaults()
	c.Variables.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.DV360.ApplyDefaults()
	c.HTTPClient.Name = util.Coalesce(c.HTTPClient.Name, "report-download")
	c.HTTPClient.UserAgent = util.Coalesce(c.HTTPClient.UserAgent, version.UserAgent())
	c.HTTPClient.ApplyDefaults()
	c.Notify.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the sections that can be checked before variables are
// read. Storage buckets and warehouse projects may come from variables and
// are validated when their components start.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.ConfigInvalid("service", err.Error()).WithCause(err)
	}
	if err := validation.Validate(&c.DAG); err != nil {
		return err
	}
	if _, err := dag.ParseTriggerRule(c.DAG.EndSDFTriggerRule); err != nil {
		return errors.ConfigInvalid("dag.end_sdf_trigger_rule", err.Error())
	}
	for _, v := range []interface{ Validate() error }{
		&c.Variables, &c.DV360, &c.HTTPClient, &c.Server, &c.Observability,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Notify.Enabled && c.Notify.Topic == "" {
		return errors.ConfigInvalid("notify.topic", "is required")
	}
	return nil
}

// loadConfig reads the configuration. An empty path searches the default
// locations.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, errors.ConfigInvalid("config", err.Error()).WithCause(err)
	}
	return cfg, nil
}
