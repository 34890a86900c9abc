// Package ratelimit counts login attempts per client key in fixed windows.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxAttempts = 5
	DefaultMaxKeys     = 10_000
)

type Decision struct {
	Allowed bool
	// Count is the number of attempts recorded in the current window, this one included.
	Count int
	// RetryAfter is the number of whole seconds until the window resets; zero when allowed.
	RetryAfter int
}

type bucket struct {
	count   int
	resetAt time.Time
}

type Limiter struct {
	window  time.Duration
	max     int
	maxKeys int
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithMaxKeys bounds the number of tracked keys.
func WithMaxKeys(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxKeys = n
		}
	}
}

func New(window time.Duration, maxAttempts int, opts ...Option) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	l := &Limiter{
		window:  window,
		max:     maxAttempts,
		maxKeys: DefaultMaxKeys,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Attempt records one attempt for key and reports whether it may proceed.
// Every attempt counts, including ones that later fail for other reasons.
func (l *Limiter) Attempt(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxKeys {
			l.makeRoomLocked(now)
		}
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(l.window)
	}
	b.count++

	if b.count > l.max {
		// a throttled caller is always told to wait at least one second
		retry := max(int(math.Ceil(b.resetAt.Sub(now).Seconds())), 1)
		return Decision{
			Allowed:    false,
			Count:      b.count,
			RetryAfter: retry,
		}
	}
	return Decision{Allowed: true, Count: b.count}
}

// Sweep drops buckets whose window has passed and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(now)
}

func (l *Limiter) sweepLocked(now time.Time) int {
	removed := 0
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
			removed++
		}
	}
	return removed
}

// makeRoomLocked sweeps, and when every bucket is still live evicts the one
// closest to its reset.
func (l *Limiter) makeRoomLocked(now time.Time) {
	if l.sweepLocked(now) > 0 {
		return
	}
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, b := range l.buckets {
		if !found || b.resetAt.Before(oldest) {
			oldestKey, oldest, found = k, b.resetAt, true
		}
	}
	if found {
		delete(l.buckets, oldestKey)
	}
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
