package server

import (
	"testing"
	"time"

	"github.com/kydev/portfolio/internal/clock"
)

func TestRateLimiter(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(3, time.Hour, clk)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth request allowed")
	}
	if !rl.Allow("b") {
		t.Error("buckets are not per key")
	}

	clk.Advance(time.Hour)
	if !rl.Allow("a") {
		t.Error("bucket not refilled after the window")
	}
}

func TestRateLimiterPrune(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(1, time.Minute, clk)
	rl.Allow("old")
	clk.Advance(90 * time.Second)
	rl.Allow("recent")
	clk.Advance(time.Minute)

	if n := rl.Prune(); n != 1 {
		t.Errorf("pruned %d buckets, want 1", n)
	}
	if _, ok := rl.visitors["recent"]; !ok {
		t.Error("recent bucket was pruned")
	}
}
