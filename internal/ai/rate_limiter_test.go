package ai

import (
	"testing"
	"time"
)

func TestRateLimiterSpacesCalls(t *testing.T) {
	current := time.Unix(0, 0)
	var slept []time.Duration

	rl := NewRateLimiter(2)
	rl.now = func() time.Time { return current }
	rl.sleep = func(d time.Duration) {
		slept = append(slept, d)
		current = current.Add(d)
	}

	rl.WaitTurn()
	rl.WaitTurn()
	rl.WaitTurn()

	if len(slept) != 2 {
		t.Fatalf("sleep count = %d, want 2 (first call is immediate)", len(slept))
	}
	for i, d := range slept {
		if d != 500*time.Millisecond {
			t.Fatalf("sleep[%d] = %v, want 500ms", i, d)
		}
	}
}

func TestRateLimiterClampsRate(t *testing.T) {
	rl := NewRateLimiter(0)
	if rl.interval != time.Second {
		t.Fatalf("interval = %v, want 1s for non-positive rate", rl.interval)
	}
}
