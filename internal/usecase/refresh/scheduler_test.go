package refresh

import (
	"context"
	"testing"
	"time"
)

func TestScheduler_RunsInitialCycleAndKick(t *testing.T) {
	f := newFixture()
	sched := NewScheduler(f.svc, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	waitForCalls := func(want int64) {
		deadline := time.After(2 * time.Second)
		for f.catalog.calls.Load() < want {
			select {
			case <-deadline:
				t.Fatalf("expected %d fetches, got %d", want, f.catalog.calls.Load())
			case <-time.After(5 * time.Millisecond):
			}
		}
	}

	waitForCalls(1)
	sched.Kick()
	waitForCalls(2)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func TestScheduler_KickNeverBlocks(t *testing.T) {
	sched := NewScheduler(newFixture().svc, time.Hour)

	// no Run loop draining the channel
	for i := 0; i < 10; i++ {
		sched.Kick()
	}
}
