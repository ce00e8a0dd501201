// Package workload simulates the bounded, wall-clock work a duty performs
// during its run phase. Every wait is a cancellation point: a preempted run
// returns within one quantum of the abort.
package workload

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleep waits for d or until ctx is done, whichever comes first. It returns
// the context's cancellation cause when interrupted.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Profile describes how long one run phase lasts. A run picks
// Min + k*Quantum for a uniformly random k such that the result does not
// exceed Max.
type Profile struct {
	Min     time.Duration
	Max     time.Duration
	Quantum time.Duration
}

// DefaultProfile reproduces the reference duty length: 10ms plus zero to ten
// 100ms slices.
var DefaultProfile = Profile{
	Min:     10 * time.Millisecond,
	Max:     1010 * time.Millisecond,
	Quantum: 100 * time.Millisecond,
}

// Pick draws a run length.
func (p Profile) Pick(rng *rand.Rand) time.Duration {
	if p.Max <= p.Min || p.Quantum <= 0 || rng == nil {
		return p.Min
	}
	slots := int64((p.Max-p.Min)/p.Quantum) + 1
	return p.Min + time.Duration(rng.Int64N(slots))*p.Quantum
}

// Steps spends total in slices no longer than quantum, calling onStep after
// each completed slice with the slice length. It stops at the first
// interrupted slice and returns the cancellation cause.
func Steps(ctx context.Context, total, quantum time.Duration, onStep func(time.Duration)) error {
	if quantum <= 0 {
		quantum = total
	}
	for remaining := total; remaining > 0; {
		slice := min(quantum, remaining)
		if err := Sleep(ctx, slice); err != nil {
			return err
		}
		if onStep != nil {
			onStep(slice)
		}
		remaining -= slice
	}
	return context.Cause(ctx)
}
