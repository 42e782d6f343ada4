package session

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/networkable/builder"
	"github.com/kbukum/networkable/logger"
	"github.com/kbukum/networkable/middleware"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/transport"
	"github.com/kbukum/networkable/validation"
	"github.com/kbukum/networkable/version"
)

const defaultName = "http"

// PrometheusConfig enables the Prometheus middleware.
type PrometheusConfig struct {
	// Namespace prefixes the metric names. Defaults to "networkable".
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// Config describes a Session: where it sends requests, over which transport
// and through which stock middlewares.
type Config struct {
	// Name identifies the session in logs, breaker state and health output.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Headers are sent with every request. Request headers win.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// UserAgent defaults to the networkable product token.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Transport selects and tunes the transport.
	Transport transport.Config `yaml:",inline" mapstructure:",squash" validate:"-"`

	// RequestID tags requests with an X-Request-ID header.
	RequestID bool `yaml:"request_id" mapstructure:"request_id"`

	// Auth sets credentials on every request.
	Auth *middleware.AuthConfig `yaml:"auth" mapstructure:"auth" validate:"-"`

	// JWT signs a short-lived token for every request.
	JWT *middleware.JWTConfig `yaml:"jwt" mapstructure:"jwt" validate:"-"`

	// RateLimit throttles outgoing requests.
	RateLimit *middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// CircuitBreaker fails fast while the upstream keeps failing.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker" validate:"-"`

	// Tracing starts an OpenTelemetry client span per request.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`

	// Logging logs every exchange through the "http" logger.
	Logging bool `yaml:"logging" mapstructure:"logging"`

	// Metrics records OpenTelemetry request metrics.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`

	// Prometheus records request metrics as Prometheus collectors.
	Prometheus *PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`

	// ValidateStatus rejects responses outside 2xx.
	ValidateStatus bool `yaml:"validate_status" mapstructure:"validate_status"`

	// Registerer receives the Prometheus collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer `yaml:"-" mapstructure:"-" validate:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	c.Transport.ApplyDefaults()
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
	if c.RateLimit != nil {
		c.RateLimit.ApplyDefaults()
	}
	if c.CircuitBreaker != nil {
		if c.CircuitBreaker.Name == "" {
			c.CircuitBreaker.Name = c.Name
		}
		c.CircuitBreaker.ApplyDefaults()
	}
}

// Validate checks the configuration and every enabled part of it.
func (c *Config) Validate() error {
	v := validation.New().Merge("", validation.Validate(c))
	v.Merge("", c.Transport.Validate())
	if c.Auth != nil {
		v.Merge("auth", c.Auth.Validate())
	}
	if c.JWT != nil {
		v.Merge("jwt", c.JWT.Validate())
	}
	if c.CircuitBreaker != nil {
		v.Merge("circuit_breaker", c.CircuitBreaker.Validate())
	}
	v.Custom(!(c.Auth.IsEnabled() && c.JWT != nil), "jwt", "cannot be combined with auth")
	return v.Err()
}

// NewFromConfig assembles a Session from cfg. Enabled stock middlewares run
// in this order: request ID, auth, JWT, rate limit, circuit breaker,
// tracing, logging, metrics, Prometheus, status validation. Middlewares
// passed with WithMiddleware in opts run after them.
func NewFromConfig(cfg Config, opts ...Option) (*Session, error) {
	s, _, err := assemble(cfg, opts...)
	return s, err
}

// assemble builds the session and hands back its circuit breaker, if any.
func assemble(cfg Config, opts ...Option) (*Session, *resilience.CircuitBreaker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	headers["User-Agent"] = cfg.UserAgent
	for k, v := range cfg.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	b, err := builder.New(builder.Config{BaseURL: cfg.BaseURL, Headers: headers})
	if err != nil {
		return nil, nil, err
	}

	t, err := transport.New(cfg.Transport)
	if err != nil {
		return nil, nil, err
	}

	mws, cb, err := cfg.middlewares()
	if err != nil {
		return nil, nil, err
	}

	all := append([]Option{WithMiddleware(mws...)}, opts...)
	return New(b, t, all...), cb, nil
}

func (c *Config) middlewares() ([]middleware.Middleware, *resilience.CircuitBreaker, error) {
	var (
		mws []middleware.Middleware
		cb  *resilience.CircuitBreaker
	)

	if c.RequestID {
		mws = append(mws, middleware.RequestID(""))
	}
	if c.Auth.IsEnabled() {
		mws = append(mws, middleware.Auth(c.Auth))
	}
	if c.JWT != nil {
		m, err := middleware.JWT(*c.JWT)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, m)
	}
	if c.RateLimit.IsEnabled() {
		mws = append(mws, middleware.RateLimit(*c.RateLimit))
	}
	if c.CircuitBreaker != nil {
		cb = resilience.NewCircuitBreaker(*c.CircuitBreaker)
		mws = append(mws, middleware.CircuitBreaker(cb, nil))
	}
	if c.Tracing {
		mws = append(mws, middleware.Tracing(nil, nil))
	}
	if c.Logging {
		mws = append(mws, middleware.Logging(logger.Get(defaultName)))
	}
	if c.Metrics {
		m, err := observability.NewClientMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.Metrics(m))
	}
	if c.Prometheus != nil {
		m, err := middleware.Prometheus(c.Registerer, c.Prometheus.Namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("session: prometheus: %w", err)
		}
		mws = append(mws, m)
	}
	if c.ValidateStatus {
		mws = append(mws, middleware.RequireSuccess())
	}
	return mws, cb, nil
}
