package bootstrap

import (
	"github.com/kbukum/spindle/config"
)

// Config is the interface constraint for command configuration types.
// Any struct that embeds config.ServiceConfig satisfies it through promoted
// methods.
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Storage storage.Config `yaml:"storage" mapstructure:"storage"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
