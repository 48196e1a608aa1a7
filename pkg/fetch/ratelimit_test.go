package fetch

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_FirstWaitDoesNotBlock(t *testing.T) {
	rl := NewRateLimiter(500 * time.Millisecond)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait blocked for %v, expected immediate return", elapsed)
	}
}

func TestRateLimiter_EnforcesMinimumDelay(t *testing.T) {
	delay := 80 * time.Millisecond
	rl := NewRateLimiter(delay)

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	first := time.Now()

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	gap := time.Since(first)

	// Small tolerance for timer granularity
	if gap < delay-5*time.Millisecond {
		t.Errorf("gap between fetch starts = %v, want >= %v", gap, delay)
	}
}

func TestRateLimiter_ZeroDelayNeverBlocks(t *testing.T) {
	rl := NewRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("100 waits with zero delay took %v", elapsed)
	}
}

func TestRateLimiter_ContextCancelDuringWait(t *testing.T) {
	rl := NewRateLimiter(5 * time.Second)

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx)
	if err == nil {
		t.Fatal("expected context error during long wait")
	}
	if time.Since(start) > 1*time.Second {
		t.Error("Wait did not return promptly on context cancellation")
	}
}
