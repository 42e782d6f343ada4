// Package config loads application configuration for networkable clients.
//
// LoadConfig resolves a config.yml and an optional .env file from standard
// locations, reads them with Viper, overlays environment variables, and
// unmarshals the result using mapstructure tags:
//
//	type CLIConfig struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Session session.Config `mapstructure:"session"`
//	}
//
//	var cfg CLIConfig
//	err := config.LoadConfig("networkable", &cfg, config.WithConfigFile(path))
//
// Environment keys map onto nested config keys by splitting on underscores,
// so SESSION_BASE_URL overrides session.base_url.
package config
