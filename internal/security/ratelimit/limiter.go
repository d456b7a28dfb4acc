package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request limiter keyed by user id.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
	done    chan struct{}
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

// NewLimiter allows maxRequests per window for each key.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow reports whether the key may make another request now. Unkeyed
// requests are never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{}
		l.buckets[key] = b
	}

	cutoff := now.Add(-l.window)
	var reqs []time.Time
	for _, t := range b.requests {
		if t.After(cutoff) {
			reqs = append(reqs, t)
		}
	}
	b.requests = reqs
	b.lastSeen = now

	if len(b.requests) >= l.maxReqs {
		return false
	}

	b.requests = append(b.requests, now)
	return true
}

// Stop halts the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}

func (l *Limiter) cleanupOldBuckets() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-2 * l.window)
			for key, b := range l.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
