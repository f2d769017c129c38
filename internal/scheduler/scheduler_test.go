package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsIntervalJob(t *testing.T) {
	s := New()
	s.tickEvery = 5 * time.Millisecond

	var runs int32
	s.Register(&Job{
		Name:     "tick",
		Schedule: Every(10 * time.Millisecond),
		Handler: func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})
	s.Start()
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&runs) < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, expected at least 2", atomic.LoadInt32(&runs))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_JobStatusRecordsError(t *testing.T) {
	s := New()
	s.tickEvery = 5 * time.Millisecond

	wantErr := errors.New("sweep failed")
	s.Register(&Job{
		Name:     "failing",
		Schedule: Every(5 * time.Millisecond),
		Handler:  func(context.Context) error { return wantErr },
	})
	s.Start()
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for {
		statuses := s.Jobs()
		if len(statuses) == 1 && statuses[0].Runs > 0 {
			if !errors.Is(statuses[0].LastErr, wantErr) {
				t.Fatalf("expected handler error in status, got %v", statuses[0].LastErr)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedule_DailyAtRollsOver(t *testing.T) {
	sched := DailyAt(9, 30)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	next := sched.nextRun(now)
	want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %s, got %s", want, next)
	}
}

func TestSchedule_EveryAdvancesFromNow(t *testing.T) {
	sched := Every(time.Hour)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if next := sched.nextRun(now); !next.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected +1h, got %s", next)
	}
}
