package middleware

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kbukum/networkable/wire"
)

// RateLimitConfig configures the client-side token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
	// Burst is the bucket size (default: ceil of the rate, at least 1).
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// IsEnabled reports whether the config limits anything.
func (c *RateLimitConfig) IsEnabled() bool {
	return c != nil && c.RequestsPerSecond > 0
}

// ApplyDefaults fills in the burst.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.Burst <= 0 {
		c.Burst = max(1, int(c.RequestsPerSecond+0.999))
	}
}

type rateLimit struct {
	Base
	limiter *rate.Limiter
}

// RateLimit delays Prepare until the limiter grants a token. The wait honors
// the request context; a cancelled or expired wait aborts the call.
func RateLimit(cfg RateLimitConfig) Middleware {
	cfg.ApplyDefaults()
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &rateLimit{limiter: rate.NewLimiter(limit, cfg.Burst)}
}

// RateLimitWith uses an existing limiter, e.g. one shared between sessions.
func RateLimitWith(l *rate.Limiter) Middleware {
	return &rateLimit{limiter: l}
}

func (*rateLimit) Name() string { return "rate_limit" }

func (r *rateLimit) Prepare(req *wire.Request) (*wire.Request, error) {
	if err := r.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return req, nil
}
