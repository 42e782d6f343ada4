package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/networkable/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component installs the global tracer and meter providers on Start and
// flushes them on Stop. Register it before the components whose telemetry
// it should export.
type Component struct {
	cfg Config

	mu sync.Mutex
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewComponent creates an observability component.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg}
}

// Name returns "observability".
func (c *Component) Name() string { return "observability" }

// Start initializes both providers.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	tp, err := InitTracer(ctx, c.cfg)
	if err != nil {
		return err
	}
	mp, err := InitMeter(ctx, c.cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return err
	}
	c.mu.Lock()
	c.tp, c.mp = tp, mp
	c.mu.Unlock()
	return nil
}

// Stop flushes and shuts down both providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	tp, mp := c.tp, c.mp
	c.tp, c.mp = nil, nil
	c.mu.Unlock()

	var errs []error
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Health is healthy once started.
func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.tp == nil {
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	}
	return h
}

// Describe reports the collector endpoint.
func (c *Component) Describe() component.Description {
	return component.Description{
		Type:    "otlp",
		Details: fmt.Sprintf("%s sample_rate=%v", c.cfg.Endpoint, c.cfg.SampleRate),
	}
}
