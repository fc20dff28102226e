package server

import (
	apperrors "github.com/kbukum/spindle/errors"
)

// Config holds admin server configuration.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	// RequestsPerSecond and Burst size the token bucket shared by all clients.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst == 0 {
		c.Burst = 20
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return apperrors.ConfigInvalid("server.port", "must be between 0 and 65535")
	case c.ReadTimeout < 0, c.WriteTimeout < 0, c.IdleTimeout < 0:
		return apperrors.ConfigInvalid("server.timeouts", "must be non-negative")
	case c.RequestsPerSecond < 0:
		return apperrors.ConfigInvalid("server.requests_per_second", "must be non-negative")
	}
	return nil
}
