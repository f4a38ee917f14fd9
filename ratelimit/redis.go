// SPDX-License-Identifier: GPL-3.0-only

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps the window counters in Redis so replicas of the
// service share one limit per client key.
type RedisLimiter struct {
	Client *redis.Client
	Max    int
	Window time.Duration
}

// admitScript increments the window counter and stamps the window TTL in
// one atomic step, so a failure between the two cannot leave a counter
// without an expiry. It returns the new count and the remaining TTL in
// milliseconds.
var admitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

func NewRedisLimiter(addr, password string, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		Max:    max,
		Window: window,
	}
}

func (l *RedisLimiter) Admit(ctx context.Context, clientKey string) (Result, error) {
	key := "ratelimit:" + clientKey

	raw, err := admitScript.Run(ctx, l.Client, []string{key}, l.Window.Milliseconds()).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("failed to advance rate limit window: %w", err)
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit script reply: %v", raw)
	}
	count, ok1 := raw[0].(int64)
	ttlMillis, ok2 := raw[1].(int64)
	if !ok1 || !ok2 {
		return Result{}, fmt.Errorf("unexpected rate limit script reply: %v", raw)
	}

	return l.decide(count, ttlMillis), nil
}

// decide maps a window counter and its remaining TTL to an admission
// decision. A non-positive TTL falls back to the full window length.
func (l *RedisLimiter) decide(count, ttlMillis int64) Result {
	if count > int64(l.Max) {
		retryAfter := time.Duration(ttlMillis) * time.Millisecond
		if retryAfter <= 0 {
			retryAfter = l.Window
		}
		return Result{Allowed: false, RetryAfter: retryAfter}
	}
	return Result{Allowed: true, Remaining: l.Max - int(count)}
}
