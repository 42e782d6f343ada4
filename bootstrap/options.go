package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/networkable/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	summary         io.Writer
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the application logger. Without it the global logger is
// initialized from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithSummary writes the startup summary to w. No summary is written by
// default.
func WithSummary(w io.Writer) Option {
	return func(o *appOptions) { o.summary = w }
}

// WithGracefulTimeout bounds shutdown. Defaults to 15s.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}
