package notify

import (
	"google.golang.org/api/option"

	"github.com/kbukum/spindle/errors"
)

// Config configures run notifications.
type Config struct {
	// Enabled publishes an event after every run.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Project defaults to the cloud_project_id variable when empty.
	Project         string `yaml:"project" mapstructure:"project"`
	Topic           string `yaml:"topic" mapstructure:"topic"`
	Source          string `yaml:"source" mapstructure:"source"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = "spindle"
	}
}

// Validate checks the configuration when notifications are enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Project == "" {
		return errors.ConfigInvalid("notify.project", "is required")
	}
	if c.Topic == "" {
		return errors.ConfigInvalid("notify.topic", "is required")
	}
	return nil
}

func (c *Config) clientOptions(extra []option.ClientOption) []option.ClientOption {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return append(opts, extra...)
}
