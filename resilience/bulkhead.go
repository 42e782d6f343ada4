package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxConcurrent is the number of calls allowed in flight.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// MaxWait is how long Acquire waits for a slot. 0 fails immediately.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait" validate:"gte=0"`
	// OnReject is called when Acquire gives up.
	OnReject func(name string) `yaml:"-" mapstructure:"-"`
}

// DefaultBulkheadConfig returns sensible defaults.
func DefaultBulkheadConfig(name string) BulkheadConfig {
	return BulkheadConfig{Name: name, MaxConcurrent: 10}
}

// Bulkhead bounds concurrency with a counting semaphore.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a bulkhead. A non-positive MaxConcurrent defaults to 10.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot and returns the function that gives it back. The
// release function is safe to call more than once; only the first call frees
// the slot.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := b.wait(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name)
		}
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { <-b.sem }) }, nil
}

// Execute runs fn inside a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (b *Bulkhead) wait(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}
	if b.config.MaxWait <= 0 {
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InUse returns the number of slots taken.
func (b *Bulkhead) InUse() int { return len(b.sem) }

// Available returns the number of free slots.
func (b *Bulkhead) Available() int { return b.config.MaxConcurrent - len(b.sem) }
