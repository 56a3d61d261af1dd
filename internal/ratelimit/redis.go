package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts the window on the first hit.
// It returns the counter and the remaining window in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed window limiter shared by every instance using the same Redis.
type RedisLimiter struct {
	client    redis.Scripter
	keyPrefix string
	opts      Options
}

// NewRedisLimiter creates a limiter storing its counters under keyPrefix.
func NewRedisLimiter(client redis.Scripter, keyPrefix string, opts Options) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		opts:      opts.withDefaults(),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	const op = "ratelimit.RedisLimiter.Allow"

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.keyPrefix + key}, l.opts.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("%s: failed to run script: %w", op, err)
	}
	if len(res) != 2 {
		return Result{}, fmt.Errorf("%s: unexpected script result length %d", op, len(res))
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond

	if count > l.opts.Limit {
		return Result{
			Allowed:    false,
			RetryAfter: ttl,
		}, nil
	}

	return Result{
		Allowed:   true,
		Remaining: l.opts.Limit - count,
	}, nil
}
