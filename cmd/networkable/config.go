package main

import (
	"os"
	"strings"

	"github.com/kbukum/networkable/config"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/request"
	"github.com/kbukum/networkable/session"
	"github.com/kbukum/networkable/validation"
	"github.com/kbukum/networkable/version"
)

const appName = "networkable"

// cliConfig is the file and environment configuration of the CLI.
type cliConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Session session.Config `yaml:"session" mapstructure:"session"`
	Routes  []routeConfig  `yaml:"routes" mapstructure:"routes"`

	// Observability enables OTLP export of the session's spans and metrics.
	// Spans are only exported with a non-zero sample_rate.
	Observability *observability.Config `yaml:"observability" mapstructure:"observability"`
}

// routeConfig declares a named request template.
type routeConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Method string `yaml:"method" mapstructure:"method"`
	Path   string `yaml:"path" mapstructure:"path"`
}

func (c *cliConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = appName
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Session.ApplyDefaults()
	if o := c.Observability; o != nil {
		if o.ServiceName == "" {
			o.ServiceName = c.Name
		}
		if o.ServiceVersion == "" {
			o.ServiceVersion = version.Get().Short()
		}
		o.ApplyDefaults()
	}
}

func (c *cliConfig) Validate() error {
	v := validation.New().
		Merge("", c.ServiceConfig.Validate()).
		Merge("session", c.Session.Validate())
	if c.Observability != nil {
		v.Merge("observability", c.Observability.Validate())
	}
	if _, err := c.router(); err != nil {
		v.Merge("routes", err)
	}
	return v.Err()
}

// router builds the routing table of the configured routes.
func (c *cliConfig) router() (*request.Router, error) {
	r := request.NewRouter()
	for _, rc := range c.Routes {
		method := request.Method(strings.ToUpper(rc.Method))
		if method == "" {
			method = request.MethodGet
		}
		if err := r.Handle(rc.Name, method, rc.Path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// loadConfig reads the config file, .env file and NETWORKABLE_* variables.
// Logs default to the console format on a terminal and to JSON otherwise.
func loadConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{}
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(appName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
		if isTerminal(os.Stderr) {
			cfg.Logging.Format = "console"
		}
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	return cfg, nil
}
