package local

import (
	"fmt"

	"github.com/kbukum/spindle/storage"
)

// Config holds local filesystem storage configuration.
type Config struct {
	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// FromStorageConfig extracts the local settings from the core config.
func FromStorageConfig(cfg storage.Config) *Config {
	return &Config{BasePath: cfg.BasePath}
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = storage.DefaultBasePath
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("local: base_path is required")
	}
	return nil
}
