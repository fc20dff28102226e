package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/spindle/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	summaryOutput   io.Writer
	quiet           bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithSummaryOutput redirects the startup summary, which defaults to stderr.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOutput = w
	}
}

// WithoutSummary disables the startup summary, e.g. for commands whose
// stdout is machine-readable.
func WithoutSummary() Option {
	return func(o *appOptions) {
		o.quiet = true
	}
}
