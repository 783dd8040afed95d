package core

import (
	"io"
	"log/slog"
)

// Option configures the optimisers and the lifetime pipeline.
type Option func(*options)

type options struct {
	logger *slog.Logger
	budget Budget
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for debug output. Nil keeps the default,
// which discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBudget limits every optimisation run.
func WithBudget(b Budget) Option {
	return func(o *options) {
		o.budget = b
	}
}
