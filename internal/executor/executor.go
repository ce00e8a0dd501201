// Package executor is the dispatch loop. It owns the current activation and
// walks every selected duty through SELECT, CONFIGURE, RUN and CLEANUP.
//
// The run phase is the only one the tick handler may interrupt. Abort
// cancels the activation's run context with a cause; the loop notices when
// the duty returns and takes the abort path back to SELECT.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/scheduler"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/telemetry"
)

// FailurePolicy says what happens after a configure phase fails.
type FailurePolicy string

const (
	// PolicyRetry re-runs configure up to ConfigureRetries more times, then
	// falls back to the power duty.
	PolicyRetry FailurePolicy = "retry"
	// PolicySkip leaves the duty out of the next arbitration.
	PolicySkip FailurePolicy = "skip"
	// PolicyFallback forces the power duty at the next arbitration.
	PolicyFallback FailurePolicy = "fallback"
)

// ParseFailurePolicy validates a policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyRetry, PolicySkip, PolicyFallback:
		return p, nil
	default:
		return "", fmt.Errorf("unknown configure failure policy %q (want retry, skip or fallback)", s)
	}
}

// Options configures the dispatch loop.
type Options struct {
	// CleanupOnAbort runs the duty's cleanup after a preempted run. When
	// false the cleanup is skipped and anything the duty acquired stays
	// held.
	CleanupOnAbort   bool
	ConfigureFailure FailurePolicy
	ConfigureRetries int
	Sink             telemetry.Sink
	// Ticks, when set, stamps telemetry events with the current tick.
	Ticks func() uint64
}

// DefaultOptions returns the flight defaults.
func DefaultOptions() Options {
	return Options{
		CleanupOnAbort:   true,
		ConfigureFailure: PolicyRetry,
		ConfigureRetries: 2,
	}
}

// activation is one pass of a duty through the state machine.
type activation struct {
	id     task.ID
	phase  atomic.Uint32
	cancel context.CancelCauseFunc
}

func (a *activation) load() task.Phase { return task.Phase(a.phase.Load()) }

func (a *activation) store(p task.Phase) { a.phase.Store(uint32(p)) }

func (a *activation) swap(from, to task.Phase) bool {
	return a.phase.CompareAndSwap(uint32(from), uint32(to))
}

// Executor is the dispatch loop. Run must be called from a single goroutine;
// Current, Abort and Stats are safe from any goroutine.
type Executor struct {
	reg     *registry.Registry
	flags   *status.Flags
	arbiter *scheduler.Arbiter
	opts    Options

	current atomic.Pointer[activation]
	cycles  atomic.Uint64
	stats   statsTable
}

// New creates a dispatch loop over a frozen registry.
func New(reg *registry.Registry, flags *status.Flags, arbiter *scheduler.Arbiter, opts Options) *Executor {
	if opts.Sink == nil {
		opts.Sink = telemetry.Nop{}
	}
	if opts.ConfigureFailure == "" {
		opts.ConfigureFailure = PolicyRetry
	}
	if opts.ConfigureRetries < 0 {
		opts.ConfigureRetries = 0
	}
	return &Executor{reg: reg, flags: flags, arbiter: arbiter, opts: opts}
}

// Run loops until ctx is done. Task failures never end the loop; a
// cancelled context is the only way out and is not an error.
func (e *Executor) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if _, err := e.Cycle(ctx); err != nil {
			break
		}
	}
	return nil
}

// Current reports the running activation.
func (e *Executor) Current() (task.ID, task.Phase, bool) {
	act := e.current.Load()
	if act == nil {
		return 0, task.PhaseSelect, false
	}
	return act.id, act.load(), true
}

// Abort cancels the current run phase with cause. It reports false when no
// duty is in its run phase or the running duty is not id.
func (e *Executor) Abort(id task.ID, cause error) bool {
	act := e.current.Load()
	if act == nil || act.id != id || !act.swap(task.PhaseRun, task.PhaseAborting) {
		return false
	}
	act.cancel(cause)
	return true
}

// Cycles returns the number of completed passes through the state machine.
func (e *Executor) Cycles() uint64 { return e.cycles.Load() }

// Stats returns a copy of the per-duty counters.
func (e *Executor) Stats() map[task.ID]TaskStats { return e.stats.snapshot() }

func (e *Executor) emit(ctx context.Context, ev telemetry.Event) {
	if e.opts.Ticks != nil {
		ev.Tick = e.opts.Ticks()
	}
	e.opts.Sink.Emit(ctx, ev)
}

var _ scheduler.Preemptible = (*Executor)(nil)
