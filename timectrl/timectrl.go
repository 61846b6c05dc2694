// Package timectrl provides the clock abstraction that paces live downlink
// runs. The core pipeline is synchronous and instant; pacing between
// scheduled transmissions lives out here so tests and batch replays can run
// on a virtual clock.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is an interface for accessing and advancing simulation time.
// Components that space work out over a pass depend on this rather than the
// time package directly, so accelerated runs stay deterministic.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// Sleep blocks until d has elapsed in simulation time or ctx is done,
	// returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock paces against wall-clock time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VirtualClock advances instantly: Sleep only moves the simulated time
// forward. It starts at the provided instant and is safe for concurrent use.
type VirtualClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewVirtualClock constructs a virtual clock starting at start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{current: start}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
	return nil
}
