package config

import (
	"github.com/kbukum/networkable/logger"
	"github.com/kbukum/networkable/validation"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every networkable application needs.
// Applications embed it in their own config structs with
// `mapstructure:",squash"`.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the embedded ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills empty fields. Debug mode lowers the default log level.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the service fields and the logging section.
func (c *ServiceConfig) Validate() error {
	return validation.New().
		Custom(c.Name != "", "name", "is required").
		Custom(c.Environment != "", "environment", "is required").
		OneOf("environment", c.Environment, Environments...).
		Merge("logging", c.Logging.Validate()).
		Err()
}
