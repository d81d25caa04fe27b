package server

import (
	"sync"
	"time"

	"github.com/kydev/portfolio/internal/clock"
)

// RateLimiter is a per-key token bucket refilled once per window.
type RateLimiter struct {
	clk    clock.Clock
	rate   int
	window time.Duration

	mu       sync.Mutex
	visitors map[string]*bucket
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

func NewRateLimiter(rate int, window time.Duration, clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		clk:      clk,
		rate:     rate,
		window:   window,
		visitors: make(map[string]*bucket),
	}
}

// Allow takes a token for key if one is left.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clk.Now()
	b, ok := rl.visitors[key]
	if !ok || now.Sub(b.lastRefill) >= rl.window {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.visitors[key] = b
	}
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Prune drops buckets idle for more than two windows.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.clk.Now()
	n := 0
	for key, b := range rl.visitors {
		if now.Sub(b.lastRefill) > 2*rl.window {
			delete(rl.visitors, key)
			n++
		}
	}
	return n
}
