// Package telemetry carries the kernel's progress events (boot, selection,
// completion, aborts, ticks) to the console and to ground-station streams.
//
// Sinks must never block the kernel for long: the tick handler emits from
// its own goroutine and the dispatch loop emits between phases.
package telemetry

import (
	"context"
	"sync"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	KindBoot            Kind = "boot"
	KindSelected        Kind = "selected"
	KindConfigureFailed Kind = "configure_failed"
	KindCompleted       Kind = "completed"
	KindFailed          Kind = "failed"
	KindAborted         Kind = "aborted"
	KindCleanupSkipped  Kind = "cleanup_skipped"
	KindPreempt         Kind = "preempt"
	KindTick            Kind = "tick"
)

// Event is one telemetry record.
type Event struct {
	Kind   Kind      `json:"kind"`
	Task   string    `json:"task,omitempty"`
	Tick   uint64    `json:"tick,omitempty"`
	Reboot int       `json:"reboot,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Sink receives events.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(context.Context, Event) {}

// Multi fans an event out to every sink in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ctx context.Context, ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}

// Recorder keeps every event in memory. Useful for tests and for the status
// endpoint's recent-history view.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewRecorder returns a recorder that keeps at most limit events, dropping
// the oldest; limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Emit implements Sink.
func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given kind.
func (r *Recorder) Filter(kind Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
