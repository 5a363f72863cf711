package generation

import (
	"context"
	"sync/atomic"
)

// key is the context key for the configuration generation.
type key struct{}

var counter atomic.Uint64

// Next returns the next generation number. Generations start at 1.
func Next() uint64 { return counter.Add(1) }

// NewContext returns a copy of parent carrying a new generation number.
// It also returns the generation.
func NewContext(parent context.Context) (context.Context, uint64) {
	gen := Next()
	return context.WithValue(parent, key{}, gen), gen
}

// FromContext extracts the generation from ctx.
// It returns the generation and whether it was present.
func FromContext(ctx context.Context) (uint64, bool) {
	gen, ok := ctx.Value(key{}).(uint64)
	return gen, ok
}
