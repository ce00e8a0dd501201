// Package ticker provides the kernel's only clock input: a periodic callback
// standing in for the hardware timer interrupt.
package ticker

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the reference system tick.
const DefaultInterval = 10 * time.Millisecond

// Source delivers ticks. Start calls fn once per period and blocks until
// ctx is done. Wall and Manual call fn from a single goroutine; a source
// bridging an external interrupt line may call it from its own goroutines,
// in which case the kernel drops the overlapping ticks.
type Source interface {
	Start(ctx context.Context, fn func(context.Context)) error
}

// Wall ticks on the wall clock. Periods missed while fn runs are dropped,
// as a busy interrupt line would drop them.
type Wall struct {
	Interval time.Duration
}

// NewWall returns a wall-clock source; a non-positive interval means
// DefaultInterval.
func NewWall(interval time.Duration) *Wall {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Wall{Interval: interval}
}

// Start implements Source.
func (w *Wall) Start(ctx context.Context, fn func(context.Context)) error {
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			// A handler may have cancelled ctx on the previous tick.
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx)
		}
	}
}

// Manual ticks only when told to. Fire hands one tick to the running Start
// loop and waits for the handler to return, which makes tick-by-tick tests
// deterministic.
type Manual struct {
	ticks   chan chan struct{}
	started chan struct{}
	stopped chan struct{}
	once    sync.Once
	stop    sync.Once
}

// NewManual returns an idle manual source.
func NewManual() *Manual {
	return &Manual{
		ticks:   make(chan chan struct{}),
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start implements Source.
func (m *Manual) Start(ctx context.Context, fn func(context.Context)) error {
	m.once.Do(func() { close(m.started) })
	defer m.stop.Do(func() { close(m.stopped) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case done := <-m.ticks:
			fn(ctx)
			close(done)
		}
	}
}

// Started is closed once Start has been called.
func (m *Manual) Started() <-chan struct{} { return m.started }

// Fire delivers one tick and waits for it to be handled. It reports false
// once the source has stopped.
func (m *Manual) Fire() bool {
	done := make(chan struct{})
	select {
	case m.ticks <- done:
	case <-m.stopped:
		return false
	}
	<-done
	return true
}

// FireN delivers up to n ticks and returns how many were handled.
func (m *Manual) FireN(n int) int {
	for i := 0; i < n; i++ {
		if !m.Fire() {
			return i
		}
	}
	return n
}
