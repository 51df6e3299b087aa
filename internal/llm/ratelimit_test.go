package llm

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAcquire(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("expected token %d to be available", i)
		}
	}
	if rl.tryAcquire() {
		t.Error("expected bucket to be empty")
	}
}

func TestRateLimiterWaitCancellation(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	if !rl.tryAcquire() {
		t.Fatal("expected first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.wait(ctx); err == nil {
		t.Error("expected wait to fail on canceled context")
	}
}

func TestRateLimiterDefaultsOnBadInput(t *testing.T) {
	rl := newRateLimiter(0)
	defer rl.Close()

	if rl.capacity != 60 {
		t.Errorf("expected default capacity 60, got %d", rl.capacity)
	}
}
