package bootstrap

import (
	"github.com/kbukum/networkable/config"
)

// Config is the constraint for application configuration types. A struct
// embedding config.ServiceConfig satisfies it through promoted methods:
//
//	type CLIConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Session session.Config `yaml:"session" mapstructure:"session"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
