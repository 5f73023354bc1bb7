package adherence

import (
	"context"
	"testing"
	"time"

	"medication-adherence/internal/platform/logger"
)

func TestSweeper_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	f := newFixture(at(day1.AddDays(1), "12:00"), twiceDaily("m1", "u1"))

	s := NewSweeper(f.ledger, time.Hour, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		f.repo.mu.Lock()
		n := len(f.repo.events)
		f.repo.mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 3 missed events from the first pass, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}
}
