// SPDX-License-Identifier: GPL-3.0-only

package ratelimit

import (
	"context"
	"csint-server/commons"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 30
	DefaultWindow      = 60 * time.Second

	// pruneThreshold is the number of distinct tracked clients above which
	// expired windows are swept. It bounds map growth and is independent of
	// the per-client request ceiling.
	pruneThreshold = 1024
)

// Result is one admission decision. RetryAfter is only meaningful when the
// request was not admitted.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a short-window request throttle keyed by client origin. It is
// independent of daily quotas and sits at the transport edge.
type Limiter interface {
	Admit(ctx context.Context, clientKey string) (Result, error)
}

// NewFromEnv builds the limiter selected by RATE_LIMIT_BACKEND: "redis" for
// a shared counter across instances, anything else for the in-process
// limiter.
func NewFromEnv() Limiter {
	max := DefaultMaxRequests
	if v := commons.GetEnv("RATE_LIMIT_MAX"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			max = i
		}
	}
	window := DefaultWindow
	if v := commons.GetEnv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			window = time.Duration(i) * time.Second
		}
	}

	if commons.GetEnv("RATE_LIMIT_BACKEND") == "redis" {
		return NewRedisLimiter(commons.GetEnv("REDIS_ADDR", "localhost:6379"),
			commons.GetEnv("REDIS_PASSWORD"), max, window)
	}
	return NewMemoryLimiter(max, window)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter counts requests in fixed windows per client key. It is a
// per-process best-effort throttle: replicas each keep their own counters
// and may collectively undercount, an accepted tradeoff.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*windowEntry

	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Admit(_ context.Context, clientKey string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[clientKey]
	if !ok || now.After(entry.resetAt) {
		if len(l.entries) > pruneThreshold {
			l.prune(now)
		}
		l.entries[clientKey] = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		return Result{Allowed: true, Remaining: l.max - 1}, nil
	}

	if entry.count >= l.max {
		return Result{Allowed: false, RetryAfter: entry.resetAt.Sub(now)}, nil
	}

	entry.count++
	return Result{Allowed: true, Remaining: l.max - entry.count}, nil
}

// prune drops expired windows; called with the lock held.
func (l *MemoryLimiter) prune(now time.Time) {
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
		}
	}
}
