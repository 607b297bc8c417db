package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "quizbot/pkg/logx"
)

func TestParseClock(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw    string
		h, m   int
		wantOK bool
	}{
		{"8:55", 8, 55, true},
		{"08:55", 8, 55, true},
		{" 23:59 ", 23, 59, true},
		{"0:00", 0, 0, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"8:5", 0, 0, false},
		{"855", 0, 0, false},
		{"-1:00", 0, 0, false},
		{"+8:00", 0, 0, false},
		{"123:00", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.raw)
		if !tt.wantOK {
			if err == nil {
				t.Fatalf("ParseClock(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q) error: %v", tt.raw, err)
		}
		if h != tt.h || m != tt.m {
			t.Fatalf("ParseClock(%q) = %d:%d, want %d:%d", tt.raw, h, m, tt.h, tt.m)
		}
	}
}

func TestAddDailyNextRunInTimezone(t *testing.T) {
	t.Parallel()

	s := New(Config{Timezone: "UTC"}, logx.Nop())
	if err := s.AddDaily("daily", "8:55", JobOptions{}, func(context.Context, string) error { return nil }); err != nil {
		t.Fatalf("AddDaily: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop(context.Background())

	snap := s.Snapshot()
	if !snap.Running || snap.Timezone != "UTC" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Schedules) != 1 {
		t.Fatalf("schedules = %+v", snap.Schedules)
	}
	it := snap.Schedules[0]
	if it.Spec != "55 8 * * *" {
		t.Fatalf("spec = %q", it.Spec)
	}
	next := it.Next.In(time.UTC)
	if next.Hour() != 8 || next.Minute() != 55 {
		t.Fatalf("next = %v, want 08:55 UTC", it.Next)
	}
	if !next.After(time.Now()) || next.Sub(time.Now()) > 24*time.Hour {
		t.Fatalf("next = %v, want within a day", next)
	}
}

func TestAddReplacesScheduleWithSameName(t *testing.T) {
	t.Parallel()

	s := New(Config{Timezone: "UTC"}, logx.Nop())
	noop := func(context.Context, string) error { return nil }
	s.Start(context.Background())
	defer s.Stop(context.Background())

	if err := s.AddDaily("daily", "8:55", JobOptions{}, noop); err != nil {
		t.Fatalf("AddDaily: %v", err)
	}
	if err := s.AddDaily(" daily ", "9:30", JobOptions{}, noop); err != nil {
		t.Fatalf("AddDaily again: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Schedules) != 1 || snap.Schedules[0].Spec != "30 9 * * *" {
		t.Fatalf("schedules = %+v, want only the 09:30 registration", snap.Schedules)
	}
}

func TestAddRejectsInvalidSchedules(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	noop := func(context.Context, string) error { return nil }
	if err := s.AddDaily("d", "25:00", JobOptions{}, noop); err == nil {
		t.Fatalf("expected error for invalid time")
	}
	if err := s.AddInterval("i", 0, JobOptions{}, noop); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if err := s.AddCron("c", "not a cron", JobOptions{}, noop); err == nil {
		t.Fatalf("expected error for invalid cron")
	}
	if err := s.AddCron(" ", "@hourly", JobOptions{}, noop); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestRunNowRequiresStart(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	_ = s.AddInterval("tick", time.Hour, JobOptions{}, func(context.Context, string) error { return nil })
	if err := s.RunNow("tick"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
	s.Start(context.Background())
	defer s.Stop(context.Background())
	if err := s.RunNow("missing"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("err = %v, want ErrUnknownJob", err)
	}
}

func TestSharedRunStateSkipsOverlap(t *testing.T) {
	t.Parallel()

	var skipped atomic.Int32
	s := New(Config{}, logx.Nop(), WithSkipHook(func(string) { skipped.Add(1) }))

	shared := &RunState{}
	started := make(chan string, 4)
	release := make(chan struct{})
	var runs atomic.Int32
	job := func(_ context.Context, trigger string) error {
		runs.Add(1)
		started <- trigger
		<-release
		return nil
	}
	if err := s.AddDaily("daily", "8:55", JobOptions{State: shared}, job); err != nil {
		t.Fatalf("AddDaily: %v", err)
	}
	if err := s.AddInterval("debug", time.Hour, JobOptions{State: shared}, job); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}
	s.Start(context.Background())

	if err := s.RunNow("daily"); err != nil {
		t.Fatalf("RunNow daily: %v", err)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not start")
	}
	if !shared.Busy() {
		t.Fatalf("shared state should be busy")
	}

	if err := s.RunNow("debug"); !errors.Is(err, ErrOverlapSkip) {
		t.Fatalf("err = %v, want ErrOverlapSkip", err)
	}
	if err := s.RunNow("daily"); !errors.Is(err, ErrOverlapSkip) {
		t.Fatalf("err = %v, want ErrOverlapSkip", err)
	}
	if n := skipped.Load(); n != 2 {
		t.Fatalf("skip hook calls = %d, want 2", n)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n := runs.Load(); n != 1 {
		t.Fatalf("runs = %d, want 1", n)
	}
	if shared.Busy() {
		t.Fatalf("shared state should be released")
	}
}

func TestStopWaitsForInFlightJob(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	started := make(chan struct{})
	var finished atomic.Bool
	_ = s.AddInterval("slow", time.Hour, JobOptions{}, func(ctx context.Context, _ string) error {
		close(started)
		select {
		case <-time.After(50 * time.Millisecond):
			finished.Store(true)
		case <-ctx.Done():
		}
		return nil
	})
	s.Start(context.Background())
	if err := s.RunNow("slow"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !finished.Load() {
		t.Fatalf("in-flight job should finish before Stop returns")
	}
}

func TestStopCancelsJobAtDeadline(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	started := make(chan struct{})
	cancelled := make(chan struct{})
	_ = s.AddInterval("stuck", time.Hour, JobOptions{}, func(ctx context.Context, _ string) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	s.Start(context.Background())
	if err := s.RunNow("stuck"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop err = %v, want deadline exceeded", err)
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("job context was not cancelled")
	}
}

func TestJobTimeout(t *testing.T) {
	t.Parallel()

	s := New(Config{DefaultTimeout: 10 * time.Millisecond}, logx.Nop())
	done := make(chan error, 1)
	_ = s.AddInterval("bounded", time.Hour, JobOptions{}, func(ctx context.Context, _ string) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	s.Start(context.Background())
	defer s.Stop(context.Background())
	if err := s.RunNow("bounded"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("job ctx err = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("job was not bounded by DefaultTimeout")
	}
}
