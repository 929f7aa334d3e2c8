package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScheduler_RunsJob(t *testing.T) {
	s := New(zerolog.Nop())

	var runs atomic.Int32
	ran := make(chan struct{}, 1)
	if err := s.Add("tick", "@every 1s", func(context.Context) {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	if runs.Load() < 1 {
		t.Fatal("expected at least one run")
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Add("bad", "not a schedule", func(context.Context) {}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	s := New(zerolog.Nop())

	started := make(chan struct{})
	cancelled := make(chan struct{})
	_ = s.Add("long", "@every 1s", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)

	select {
	case <-cancelled:
	default:
		t.Fatal("job context was not cancelled")
	}
}
