// Package ratelimit implements per-client sliding-window request limits.
package ratelimit

import (
	"sync"
	"time"

	"github.com/unklstewy/whatdatplane/internal/metrics"
)

// Decision is the outcome of one Check.
type Decision struct {
	Allowed bool

	// Limit is the configured maximum per window
	Limit int

	// Remaining is how many more requests the client may make in the current window
	Remaining int

	// RetryAfter is how long until the oldest counted request leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter keeps, per client, the timestamps of admitted requests inside a trailing
// window (a sliding-window log).
type Limiter struct {
	name   string
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string][]time.Time
}

// New creates a limiter admitting max requests per client per window.
func New(name string, max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		name:    name,
		max:     max,
		window:  window,
		now:     time.Now,
		clients: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the limiter's metric label.
func (l *Limiter) Name() string {
	return l.name
}

// Limit returns the configured maximum per window.
func (l *Limiter) Limit() int {
	return l.max
}

// Check prunes id's stale timestamps and, if the client is under the limit, records
// this request. Pruning, counting and recording happen under one lock.
func (l *Limiter) Check(id string) Decision {
	now := l.now()

	l.mu.Lock()
	stamps := prune(l.clients[id], now.Add(-l.window))

	if len(stamps) >= l.max {
		l.clients[id] = stamps
		var retry time.Duration
		if len(stamps) > 0 {
			retry = stamps[0].Add(l.window).Sub(now)
		}
		l.mu.Unlock()

		metrics.RateLimitDecisions.WithLabelValues(l.name, "limited").Inc()
		return Decision{Allowed: false, Limit: l.max, Remaining: 0, RetryAfter: retry}
	}

	stamps = append(stamps, now)
	l.clients[id] = stamps
	remaining := l.max - len(stamps)
	l.mu.Unlock()

	metrics.RateLimitDecisions.WithLabelValues(l.name, "allowed").Inc()
	return Decision{Allowed: true, Limit: l.max, Remaining: remaining}
}

// IsLimited is Check reduced to its verdict. It records the request when admitted.
func (l *Limiter) IsLimited(id string) bool {
	return !l.Check(id).Allowed
}

// Sweep forgets clients with no requests left in the window and returns how many
// were dropped.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, stamps := range l.clients {
		stamps = prune(stamps, cutoff)
		if len(stamps) == 0 {
			delete(l.clients, id)
			removed++
			continue
		}
		l.clients[id] = stamps
	}
	return removed
}

// prune drops timestamps at or before cutoff. stamps is oldest first.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[i:]...)
}
