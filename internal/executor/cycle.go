package executor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/scheduler"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/telemetry"
)

// Result is how an activation ended.
type Result uint8

const (
	ResultCompleted Result = iota
	ResultFailed
	ResultAborted
	ResultConfigureFailed
)

func (r Result) String() string {
	switch r {
	case ResultCompleted:
		return "completed"
	case ResultFailed:
		return "failed"
	case ResultAborted:
		return "aborted"
	case ResultConfigureFailed:
		return "configure_failed"
	default:
		return "unknown"
	}
}

// Outcome describes one pass through the state machine.
type Outcome struct {
	ID     task.ID
	Reason scheduler.Reason
	Result Result
	// Err is the configure or run error, or the abort cause.
	Err error
	// CleanedUp is false when the cleanup phase was skipped.
	CleanedUp  bool
	CleanupErr error
}

// Cycle runs one SELECT, CONFIGURE, RUN, CLEANUP pass. It returns ctx's
// error, without dispatching anything, when ctx is done by the time a duty
// has been selected.
func (e *Executor) Cycle(ctx context.Context) (Outcome, error) {
	dec := e.arbiter.Select(ctx)
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	id := dec.ID
	desc := e.reg.MustLookup(id)
	ctx = ctxlog.With(ctx, "task", id)
	logger := ctxlog.FromContext(ctx)

	e.flags.Set(status.ModeGroup, uint(id))
	runCtx, cancel := context.WithCancelCause(ctx)
	act := &activation{id: id, cancel: cancel}
	act.store(task.PhaseSelect)
	e.current.Store(act)
	defer e.finish(act)

	e.stats.update(id, func(s *TaskStats) { s.Selected++ })
	logger.Debug("Duty selected.", "reason", dec.Reason, "polls", dec.Polls)
	e.emit(ctx, telemetry.Event{Kind: telemetry.KindSelected, Task: id.String(), Detail: dec.Reason.String()})

	out := Outcome{ID: id, Reason: dec.Reason}

	act.store(task.PhaseConfigure)
	if err := e.configure(ctx, desc); err != nil {
		e.configureFailed(ctx, id, err)
		out.Result = ResultConfigureFailed
		out.Err = err
		return out, nil
	}

	act.store(task.PhaseRun)
	if id != e.reg.Power().ID && e.flags.Test(status.StatusGroup, status.ModeSwitch) {
		act.swap(task.PhaseRun, task.PhaseAborting)
		logger.Debug("Power override pending, skipping run phase.")
		return e.abort(ctx, desc, act, out, scheduler.ErrPreempted), nil
	}

	logger.Info("▶️ Running duty.")
	runErr := desc.Duty.Run(runCtx)
	if !act.swap(task.PhaseRun, task.PhaseCleanup) {
		return e.abort(ctx, desc, act, out, context.Cause(runCtx)), nil
	}

	res := task.RunResult{Err: runErr}
	if runCtx.Err() != nil {
		// The loop itself is shutting down.
		res = task.RunResult{Aborted: true, Cause: context.Cause(runCtx)}
	}
	out.CleanupErr = e.cleanup(ctx, desc, res)
	out.CleanedUp = true

	switch {
	case res.Aborted:
		out.Result = ResultAborted
		out.Err = res.Cause
		e.stats.update(id, func(s *TaskStats) { s.Aborted++ })
		logger.Info("Duty interrupted by shutdown.", "cause", res.Cause)
	case runErr != nil:
		out.Result = ResultFailed
		out.Err = runErr
		e.stats.update(id, func(s *TaskStats) { s.Failed++ })
		logger.Warn("Duty run failed.", "error", runErr)
		e.emit(ctx, telemetry.Event{Kind: telemetry.KindFailed, Task: id.String(), Detail: runErr.Error()})
	default:
		out.Result = ResultCompleted
		e.stats.update(id, func(s *TaskStats) { s.Completed++ })
		logger.Info("✅ Duty completed.")
		e.emit(ctx, telemetry.Event{Kind: telemetry.KindCompleted, Task: id.String()})
	}
	return out, nil
}

func (e *Executor) configure(ctx context.Context, desc task.Descriptor) error {
	logger := ctxlog.FromContext(ctx)
	attempts := 1
	if e.opts.ConfigureFailure == PolicyRetry {
		attempts += e.opts.ConfigureRetries
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = desc.Duty.Configure(ctx); err == nil {
			return nil
		}
		logger.Warn("Duty configure failed.", "attempt", i, "attempts", attempts, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("configure %s: %w", desc.ID, err)
}

func (e *Executor) configureFailed(ctx context.Context, id task.ID, err error) {
	logger := ctxlog.FromContext(ctx)
	e.stats.update(id, func(s *TaskStats) { s.ConfigureFailed++ })
	e.emit(ctx, telemetry.Event{Kind: telemetry.KindConfigureFailed, Task: id.String(), Detail: err.Error()})

	switch e.opts.ConfigureFailure {
	case PolicySkip:
		e.arbiter.Suppress(id)
		logger.Info("Duty left out of next arbitration.")
	default:
		if id != e.reg.Power().ID {
			e.flags.Set(status.StatusGroup, status.ModeSwitch)
			logger.Info("Falling back to power duty.")
		}
	}
}

// abort is the path taken when the run phase was cancelled or never started
// because of a pending power override.
func (e *Executor) abort(ctx context.Context, desc task.Descriptor, act *activation, out Outcome, cause error) Outcome {
	logger := ctxlog.FromContext(ctx)
	id := desc.ID
	out.Result = ResultAborted
	out.Err = cause

	e.stats.update(id, func(s *TaskStats) { s.Aborted++ })
	logger.Warn("🔥 Duty aborted.", "cause", cause)
	e.emit(ctx, telemetry.Event{Kind: telemetry.KindAborted, Task: id.String(), Detail: errText(cause)})

	if !e.opts.CleanupOnAbort {
		e.stats.update(id, func(s *TaskStats) { s.CleanupSkipped++ })
		logger.Warn("Cleanup skipped after abort, acquired resources stay held.")
		e.emit(ctx, telemetry.Event{Kind: telemetry.KindCleanupSkipped, Task: id.String()})
		return out
	}

	act.store(task.PhaseCleanup)
	out.CleanupErr = e.cleanup(ctx, desc, task.RunResult{Aborted: true, Cause: cause})
	out.CleanedUp = true
	return out
}

// cleanup runs detached from cancellation so a shutdown cannot cut it short.
func (e *Executor) cleanup(ctx context.Context, desc task.Descriptor, res task.RunResult) error {
	if err := desc.Duty.Cleanup(context.WithoutCancel(ctx), res); err != nil {
		ctxlog.FromContext(ctx).Warn("Duty cleanup failed.", "error", err)
		return fmt.Errorf("cleanup %s: %w", desc.ID, err)
	}
	return nil
}

// finish clears the mode bit only after cleanup or the abort path is done.
func (e *Executor) finish(act *activation) {
	e.flags.Clear(status.ModeGroup, uint(act.id))
	e.current.CompareAndSwap(act, nil)
	act.cancel(nil)
	e.cycles.Add(1)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
