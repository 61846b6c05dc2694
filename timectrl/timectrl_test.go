package timectrl

import (
	"context"
	"testing"
	"time"
)

func TestVirtualClockAdvancesInstantly(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewVirtualClock(start)

	if !clock.Now().Equal(start) {
		t.Fatalf("Now = %v, want %v", clock.Now(), start)
	}

	began := time.Now()
	if err := clock.Sleep(context.Background(), time.Hour); err != nil {
		t.Fatalf("Sleep error: %v", err)
	}
	if time.Since(began) > time.Second {
		t.Fatal("virtual Sleep blocked on wall time")
	}
	if got := clock.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("Now after sleep = %v, want %v", got, start.Add(time.Hour))
	}
}

func TestVirtualClockNegativeDuration(t *testing.T) {
	start := time.Unix(100, 0)
	clock := NewVirtualClock(start)
	if err := clock.Sleep(context.Background(), -time.Minute); err != nil {
		t.Fatalf("Sleep error: %v", err)
	}
	if !clock.Now().Equal(start) {
		t.Fatalf("negative sleep moved the clock to %v", clock.Now())
	}
}

func TestVirtualClockCancelledContext(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := clock.Sleep(ctx, time.Second); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !clock.Now().Equal(time.Unix(0, 0)) {
		t.Fatal("cancelled sleep still advanced the clock")
	}
}

func TestRealClockSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	began := time.Now()
	err := RealClock{}.Sleep(ctx, time.Hour)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(began) > 5*time.Second {
		t.Fatal("Sleep did not return promptly after cancellation")
	}
}

func TestRealClockSleepZeroDuration(t *testing.T) {
	if err := (RealClock{}).Sleep(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep error: %v", err)
	}
}
