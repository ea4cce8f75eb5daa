package http

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// limiterOptions tunes the per-client rate limiter.
type limiterOptions struct {
	limit      int           // mutating requests allowed per window
	window     time.Duration // fixed counting window
	sweepEvery time.Duration // cadence of the stale-entry sweep
	staleAfter time.Duration // idle time before a client entry is dropped
}

func defaultLimiterOptions() limiterOptions {
	return limiterOptions{
		limit:      60,
		window:     time.Minute,
		sweepEvery: 5 * time.Minute,
		staleAfter: 10 * time.Minute,
	}
}

// rateLimiter throttles mutating requests per client IP using fixed
// counting windows. Reads pass through unconditionally.
type rateLimiter struct {
	opts    limiterOptions
	metrics *securityMetrics

	mu      sync.Mutex
	windows map[string]*clientWindow

	done     chan struct{}
	stopOnce sync.Once
}

// clientWindow counts one client's mutations inside the current window.
type clientWindow struct {
	start time.Time // rolls forward once the window elapses
	count int
	seen  time.Time // last request, drives the stale sweep
}

func newRateLimiter(opts limiterOptions, metrics *securityMetrics) *rateLimiter {
	rl := &rateLimiter{
		opts:    opts,
		metrics: metrics,
		windows: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allowRequest applies the limiter policy to one request: safe methods are
// exempt, everything else counts against the client's current window.
func (rl *rateLimiter) allowRequest(method, clientIP string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok {
		rl.windows[clientIP] = &clientWindow{start: now, count: 1, seen: now}
		return true
	}

	w.seen = now
	if now.Sub(w.start) >= rl.opts.window {
		w.start = now
		w.count = 1
		return true
	}

	w.count++
	if w.count > rl.opts.limit {
		if rl.metrics != nil {
			atomic.AddInt64(&rl.metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.opts.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.done:
			return
		}
	}
}

// sweep drops clients idle longer than staleAfter.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.opts.staleAfter)
	for ip, w := range rl.windows {
		if w.seen.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

// stop terminates the sweep goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
