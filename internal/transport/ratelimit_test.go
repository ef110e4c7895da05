package transport

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRateLimiterSpacing(t *testing.T) {
	const rate = 50 // 20ms interval keeps the test fast
	rl := NewRateLimiter(rate)

	const n = 5
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// n requests at rate r need at least (n-1)/r seconds.
	min := time.Duration(n-1) * time.Second / rate
	if elapsed < min {
		t.Errorf("%d waits took %v, want at least %v", n, elapsed, min)
	}
}

func TestRateLimiterConcurrent(t *testing.T) {
	const rate = 100
	rl := NewRateLimiter(rate)

	const n = 8
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error: %v", err)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// The bound holds regardless of how many goroutines contend.
	min := time.Duration(n-1) * time.Second / rate
	if elapsed < min {
		t.Errorf("%d concurrent waits took %v, want at least %v", n, elapsed, min)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter took %v", elapsed)
	}
}

func TestRateLimiterCanceled(t *testing.T) {
	rl := NewRateLimiter(1)

	// First call claims the slot; the second must sleep a full second and
	// should abort as soon as the context is canceled.
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx)
	if err == nil {
		t.Fatal("Wait() on canceled context returned nil")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Wait() did not return promptly after cancellation")
	}
}
