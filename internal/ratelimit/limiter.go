package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a rate-limit check. ResetAt is meaningful when
// the request was denied: it is the earliest time the identifier will be
// allowed again.
type Decision struct {
	Allowed bool
	ResetAt time.Time
}

// Limiter is a sliding-window request limiter keyed by caller identifier.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type Config struct {
	Window      time.Duration
	MaxRequests int
}

// MemoryLimiter keeps per-identifier request timestamps in process memory.
// Each check prunes timestamps older than the window before counting, so the
// window slides with traffic. Safe for concurrent use from in-flight
// requests.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	history map[string][]time.Time
}

type MemoryOption func(*MemoryLimiter)

// WithClock overrides the time source. Used by tests to advance the window.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

func NewMemoryLimiter(cfg Config, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		cfg:     cfg,
		now:     time.Now,
		history: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.cfg.Window)

	kept := l.history[key][:0]
	for _, ts := range l.history[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.cfg.MaxRequests {
		l.history[key] = kept
		return Decision{Allowed: false, ResetAt: kept[0].Add(l.cfg.Window)}, nil
	}

	l.history[key] = append(kept, now)
	return Decision{Allowed: true}, nil
}
