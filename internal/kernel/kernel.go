// Package kernel wires the flag set, the task table, the arbiter, the
// dispatch loop and the tick handler into one runnable unit.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/executor"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/scheduler"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/specialistvlad/intellisat/internal/ticker"
)

// ErrTickLimit is the cause recorded when a bounded run reaches its limit.
var ErrTickLimit = errors.New("tick limit reached")

// Options configures a kernel.
type Options struct {
	Arbiter  scheduler.ArbiterOptions
	Executor executor.Options
	// Urgent is the power-critical condition checked on every tick.
	Urgent task.Predicate
	// MaxTicks bounds the run for simulation. Zero runs until cancelled.
	MaxTicks       uint64
	TelemetryEvery uint64
	Sink           telemetry.Sink
}

// DefaultOptions returns the flight defaults with no urgent condition.
func DefaultOptions() Options {
	return Options{
		Arbiter:  scheduler.DefaultArbiterOptions(),
		Executor: executor.DefaultOptions(),
	}
}

// Kernel is the assembled flight kernel.
type Kernel struct {
	Flags    *status.Flags
	Registry *registry.Registry
	Arbiter  *scheduler.Arbiter
	Executor *executor.Executor
	ISR      *scheduler.ISR

	source ticker.Source

	mu   sync.Mutex
	stop context.CancelCauseFunc
}

// New assembles a kernel around a frozen registry.
func New(reg *registry.Registry, flags *status.Flags, src ticker.Source, opts Options) *Kernel {
	if opts.Sink == nil {
		opts.Sink = telemetry.Nop{}
	}
	k := &Kernel{Flags: flags, Registry: reg, source: src}
	k.Arbiter = scheduler.NewArbiter(reg, flags, opts.Arbiter)

	execOpts := opts.Executor
	if execOpts.Sink == nil {
		execOpts.Sink = opts.Sink
	}
	execOpts.Ticks = func() uint64 { return k.ISR.Ticks() }
	k.Executor = executor.New(reg, flags, k.Arbiter, execOpts)

	k.ISR = scheduler.NewISR(flags, k.Executor, scheduler.ISROptions{
		Urgent:         opts.Urgent,
		Power:          reg.Power().ID,
		MaxTicks:       opts.MaxTicks,
		OnLimit:        k.limit,
		TelemetryEvery: opts.TelemetryEvery,
		Sink:           opts.Sink,
	})
	return k
}

func (k *Kernel) limit() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stop != nil {
		k.stop(ErrTickLimit)
	}
}

// Run starts the tick source and the dispatch loop and blocks until ctx is
// cancelled or the tick limit is reached. Both are clean exits.
func (k *Kernel) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	k.mu.Lock()
	k.stop = cancel
	k.mu.Unlock()

	logger.Info("🚀 Kernel started.", "tasks", k.Registry.Len())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := k.source.Start(ctx, k.ISR.Tick); err != nil {
			cancel(fmt.Errorf("tick source: %w", err))
		}
	}()

	if err := k.Executor.Run(ctx); err != nil {
		cancel(err)
	}
	cancel(nil)
	wg.Wait()

	cause := context.Cause(ctx)
	logger.Info("Kernel stopped.", "ticks", k.ISR.Ticks(), "cycles", k.Executor.Cycles(), "cause", cause)
	switch {
	case errors.Is(cause, ErrTickLimit),
		errors.Is(cause, context.Canceled),
		errors.Is(cause, context.DeadlineExceeded):
		return nil
	default:
		return cause
	}
}

// Snapshot is a point-in-time view of the kernel for the status endpoint.
type Snapshot struct {
	Ticks       uint64                        `json:"ticks"`
	Overruns    uint64                        `json:"overruns"`
	Preemptions uint64                        `json:"preemptions"`
	Cycles      uint64                        `json:"cycles"`
	Running     bool                          `json:"running"`
	Task        string                        `json:"task,omitempty"`
	Phase       string                        `json:"phase,omitempty"`
	Started     bool                          `json:"started"`
	StatusBits  uint32                        `json:"status_bits"`
	ModeBits    uint32                        `json:"mode_bits"`
	Stats       map[string]executor.TaskStats `json:"stats"`
}

// Snapshot reads the kernel's counters and flags.
func (k *Kernel) Snapshot() Snapshot {
	st, mode := k.Flags.Snapshot()
	s := Snapshot{
		Ticks:       k.ISR.Ticks(),
		Overruns:    k.ISR.Overruns(),
		Preemptions: k.ISR.Preemptions(),
		Cycles:      k.Executor.Cycles(),
		Started:     k.Flags.Test(status.StatusGroup, status.Start),
		StatusBits:  st,
		ModeBits:    mode,
		Stats:       make(map[string]executor.TaskStats),
	}
	if id, phase, ok := k.Executor.Current(); ok {
		s.Running = true
		s.Task = id.String()
		s.Phase = phase.String()
	}
	for id, row := range k.Executor.Stats() {
		s.Stats[id.String()] = row
	}
	return s
}
