package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/telemetry"
)

// ErrPreempted is the cancellation cause of a run phase aborted by the tick
// handler in favour of the power duty.
var ErrPreempted = errors.New("preempted by power-critical condition")

// Preemptible is the tick handler's view of the dispatcher.
type Preemptible interface {
	// Current reports the running activation, if any.
	Current() (id task.ID, phase task.Phase, ok bool)
	// Abort cancels the running activation of id with cause. It only
	// succeeds while that duty is still the one in its run phase.
	Abort(id task.ID, cause error) bool
}

// ISROptions configures the tick handler.
type ISROptions struct {
	// Urgent is the power-critical condition. A nil predicate never fires.
	Urgent task.Predicate
	// Power is the duty that handles power-critical conditions.
	Power task.ID
	// MaxTicks bounds a simulation run. Zero means unbounded.
	MaxTicks uint64
	// OnLimit is called once when MaxTicks is reached.
	OnLimit func()
	// TelemetryEvery emits a tick event every n ticks. Zero disables it.
	TelemetryEvery uint64
	Sink           telemetry.Sink
}

// ISR is the periodic tick handler.
type ISR struct {
	flags  *status.Flags
	target Preemptible
	opts   ISROptions

	busy        atomic.Bool
	ticks       atomic.Uint64
	overruns    atomic.Uint64
	preemptions atomic.Uint64
	limitOnce   sync.Once
}

// NewISR creates a tick handler that preempts target.
func NewISR(flags *status.Flags, target Preemptible, opts ISROptions) *ISR {
	if opts.Sink == nil {
		opts.Sink = telemetry.Nop{}
	}
	return &ISR{flags: flags, target: target, opts: opts}
}

// Tick handles one timer period. A tick that arrives while the previous one
// is still being handled is dropped and counted as an overrun. The built-in
// sources never overlap; sources that deliver ticks from several goroutines
// do.
func (i *ISR) Tick(ctx context.Context) {
	if !i.busy.CompareAndSwap(false, true) {
		i.overruns.Add(1)
		return
	}
	defer i.busy.Store(false)

	n := i.ticks.Add(1)
	logger := ctxlog.FromContext(ctx)

	urgent, err := readiness.Evaluate(ctx, i.opts.Urgent)
	if err != nil {
		logger.Warn("Power-critical check failed, treating as not urgent.", "tick", n, "error", err)
	}
	if urgent {
		i.override(ctx, n)
	}

	if every := i.opts.TelemetryEvery; every > 0 && n%every == 0 {
		ev := telemetry.Event{Kind: telemetry.KindTick, Tick: n}
		if id, _, ok := i.target.Current(); ok {
			ev.Task = id.String()
		}
		i.opts.Sink.Emit(ctx, ev)
	}

	if i.opts.MaxTicks > 0 && n >= i.opts.MaxTicks {
		i.limitOnce.Do(func() {
			logger.Info("🏁 Tick limit reached.", "tick", n)
			if i.opts.OnLimit != nil {
				i.opts.OnLimit()
			}
		})
	}
}

func (i *ISR) override(ctx context.Context, n uint64) {
	id, phase, running := i.target.Current()
	if running && id == i.opts.Power {
		// The power duty is already active. Only ask for it again if it is
		// on its way out.
		if phase == task.PhaseCleanup || phase == task.PhaseAborting {
			i.flags.Set(status.StatusGroup, status.ModeSwitch)
		}
		return
	}

	raised := !i.flags.TestAndSet(status.StatusGroup, status.ModeSwitch)
	if !running || phase != task.PhaseRun {
		if raised {
			ctxlog.FromContext(ctx).Debug("Power duty requested for next arbitration.", "tick", n)
		}
		return
	}
	if !i.target.Abort(id, ErrPreempted) {
		return
	}
	i.preemptions.Add(1)
	ctxlog.FromContext(ctx).Info("🔥 Preempting duty for power.", "task", id, "tick", n)
	i.opts.Sink.Emit(ctx, telemetry.Event{
		Kind:   telemetry.KindPreempt,
		Task:   id.String(),
		Tick:   n,
		Detail: ErrPreempted.Error(),
	})
}

// Ticks returns the number of handled ticks.
func (i *ISR) Ticks() uint64 { return i.ticks.Load() }

// Overruns returns the number of dropped, overlapping ticks.
func (i *ISR) Overruns() uint64 { return i.overruns.Load() }

// Preemptions returns the number of run phases aborted.
func (i *ISR) Preemptions() uint64 { return i.preemptions.Load() }
