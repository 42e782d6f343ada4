package transport

import (
	"fmt"
	"time"

	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/security"
	"github.com/kbukum/networkable/validation"
)

// Kind names a transport implementation.
type Kind string

// Transport kinds.
const (
	KindHTTP     Kind = "http"
	KindFastHTTP Kind = "fasthttp"
)

const (
	defaultTimeout             = 30 * time.Second
	defaultMaxIdleConnsPerHost = 16
)

// Config configures the transport built by New.
type Config struct {
	// Kind selects the implementation. Defaults to http.
	Kind Kind `yaml:"transport" mapstructure:"transport" validate:"omitempty,oneof=http fasthttp"`

	// Timeout bounds a whole exchange, body included. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// H2C speaks HTTP/2 over cleartext TCP. Only the http kind supports it.
	H2C bool `yaml:"h2c" mapstructure:"h2c"`

	// MaxIdleConnsPerHost caps pooled idle connections per host.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host" validate:"gte=0"`

	// MaxConcurrent bounds exchanges in flight. 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`

	// MaxWait is how long a send waits for a free slot when MaxConcurrent is
	// reached. 0 fails immediately.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait" validate:"gte=0"`

	// TLS configures certificate verification and client certificates.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Retry retries retryable transport failures. Nil disables retries.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = KindHTTP
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.Retry != nil {
		c.Retry.ApplyDefaults()
	}
}

// Validate checks that the configuration is consistent.
func (c *Config) Validate() error {
	v := validation.New().Merge("", validation.Validate(c))
	v.Custom(!(c.H2C && c.Kind == KindFastHTTP), "h2c", "not supported by the fasthttp transport")
	v.Custom(!(c.H2C && c.TLS.IsEnabled()), "h2c", "cannot be combined with tls")
	if c.TLS != nil {
		v.Merge("tls", c.TLS.Validate())
	}
	return v.Err()
}

// New builds the transport described by cfg. When MaxConcurrent is set the
// transport is wrapped by Limit.
func New(cfg Config) (Transport, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		t   Transport
		err error
	)
	switch cfg.Kind {
	case KindHTTP:
		t, err = NewHTTP(cfg)
	case KindFastHTTP:
		t, err = NewFastHTTP(cfg)
	default:
		err = fmt.Errorf("transport: unknown kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxConcurrent > 0 {
		t = Limit(t, resilience.BulkheadConfig{
			Name:          string(cfg.Kind),
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
		})
	}
	return t, nil
}
