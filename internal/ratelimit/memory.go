package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type window struct {
	count int
	end   time.Time
}

// MemoryLimiter is a process-local fixed window limiter.
// Expired windows are pruned by Run.
type MemoryLimiter struct {
	opts   Options
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryLimiter creates a limiter keeping its counters in memory.
func NewMemoryLimiter(opts Options, logger *slog.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		opts:    opts.withDefaults(),
		now:     time.Now,
		logger:  logger,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.end) {
		w = &window{end: now.Add(l.opts.Window)}
		l.windows[key] = w
	}

	if w.count >= l.opts.Limit {
		return Result{
			Allowed:    false,
			RetryAfter: w.end.Sub(now),
		}, nil
	}

	w.count++

	return Result{
		Allowed:   true,
		Remaining: l.opts.Limit - w.count,
	}, nil
}

// Run prunes expired windows every interval until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.prune(); n > 0 && l.logger != nil {
				l.logger.Debug("pruned rate limit windows", slog.Int("count", n))
			}
		}
	}
}

func (l *MemoryLimiter) prune() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	for key, w := range l.windows {
		if !now.Before(w.end) {
			delete(l.windows, key)
			n++
		}
	}

	return n
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.windows)
}
