// Package ratelimit provides a keyed token-bucket limiter.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter gives each key its own token bucket. Buckets idle for
// longer than the idle timeout are evicted by a background sweep.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// PerMinute creates a limiter allowing n requests per minute per key, with a
// burst of n. n <= 0 disables limiting.
func PerMinute(n int) *KeyedRateLimiter {
	if n <= 0 {
		return New(rate.Inf, 0, 10*time.Minute)
	}
	return New(rate.Limit(float64(n)/60), n, 10*time.Minute)
}

// New creates a keyed limiter and starts its eviction sweep.
func New(limit rate.Limit, burst int, idle time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go krl.sweepLoop()
	return krl
}

// Allow reports whether a request for key may proceed now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	now := krl.now()
	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastSeen = now
	krl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

// Stop ends the eviction sweep. It is safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() { close(krl.done) })
}

func (krl *KeyedRateLimiter) sweepLoop() {
	ticker := time.NewTicker(krl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.sweep()
		}
	}
}

func (krl *KeyedRateLimiter) sweep() {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	cutoff := krl.now().Add(-krl.idle)
	for key, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, key)
		}
	}
}
