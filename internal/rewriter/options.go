package rewriter

import "go.uber.org/zap"

// Options configures Rewrite.
//
// Defaults:
// - Concurrency: 1 (clients are rewritten one at a time, in document order)
// - Logger:      no-op
type Options struct {
	Concurrency int
	Logger      *zap.Logger
}

// Option mutates Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Concurrency: 1,
		Logger:      zap.NewNop(),
	}
}

// WithConcurrency bounds the number of client rewrites running at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option { return func(o *Options) { o.Concurrency = max(n, 1) } }

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
