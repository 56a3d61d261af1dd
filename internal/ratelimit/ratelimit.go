// Package ratelimit counts events per key in fixed windows.
//
// Two stores implement the same contract, at most Limit events per key per Window:
// MemoryLimiter keeps the counters in the process and is only correct for a single
// instance, RedisLimiter shares them between instances.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether one more event is permitted for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Options configure the window of a limiter.
type Options struct {
	Limit  int
	Window time.Duration
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	return o
}
