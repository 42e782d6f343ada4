package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/networkable/component"
	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/transport"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps a Session with lifecycle management. The session is built
// in Start.
type Component struct {
	config Config
	opts   []Option

	mu      sync.RWMutex
	session *Session
	breaker *resilience.CircuitBreaker
}

// NewComponent creates a session component.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, opts: opts}
}

// Name returns the session name.
func (c *Component) Name() string { return c.config.Name }

// Start builds the session.
func (c *Component) Start(_ context.Context) error {
	s, cb, err := assemble(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session, c.breaker = s, cb
	c.mu.Unlock()
	return nil
}

// Stop closes idle transport connections. In-flight calls are not
// interrupted.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s != nil {
		transport.CloseIdle(s.Transport())
	}
	return nil
}

// Health reports unhealthy before Start and while the circuit breaker is
// open, degraded while it is probing.
func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	s, cb := c.session, c.breaker
	c.mu.RUnlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case s == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case cb == nil:
	case cb.State() == resilience.StateOpen:
		h.Status, h.Message = component.StatusUnhealthy, "circuit breaker open"
	case cb.State() == resilience.StateHalfOpen:
		h.Status, h.Message = component.StatusDegraded, "circuit breaker half-open"
	}
	return h
}

// Describe summarizes the session for startup output.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-session",
		Details: fmt.Sprintf("%s transport=%s", c.config.BaseURL, c.config.Transport.Kind),
	}
}

// Session returns the session built by Start, or nil.
func (c *Component) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}
