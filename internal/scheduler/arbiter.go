package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/workload"
)

// Reason records why a duty was selected.
type Reason uint8

const (
	// ReasonReady means the duty's readiness predicate held.
	ReasonReady Reason = iota
	// ReasonForced means the tick handler demanded the power duty.
	ReasonForced
	// ReasonFallback means nothing was due after re-polling.
	ReasonFallback
)

func (r Reason) String() string {
	switch r {
	case ReasonReady:
		return "ready"
	case ReasonForced:
		return "forced"
	case ReasonFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one arbitration.
type Decision struct {
	ID     task.ID
	Reason Reason
	// Polls is the number of passes over the task table, zero for a forced
	// decision.
	Polls int
}

// ArbiterOptions tunes the idle behaviour of the arbiter.
type ArbiterOptions struct {
	// RepollLimit is how many extra passes are made when no duty is due
	// before falling back to the power duty.
	RepollLimit int
	// RepollBackoff is the pause between passes.
	RepollBackoff time.Duration
}

// DefaultArbiterOptions re-polls three times without pausing.
func DefaultArbiterOptions() ArbiterOptions {
	return ArbiterOptions{RepollLimit: 3}
}

// Arbiter chooses the next duty. It is used only from the dispatch loop;
// Suppress may be called from anywhere.
type Arbiter struct {
	reg        *registry.Registry
	flags      *status.Flags
	opts       ArbiterOptions
	suppressed atomic.Uint32
}

// NewArbiter creates an arbiter over a frozen registry.
func NewArbiter(reg *registry.Registry, flags *status.Flags, opts ArbiterOptions) *Arbiter {
	if opts.RepollLimit < 0 {
		opts.RepollLimit = 0
	}
	return &Arbiter{reg: reg, flags: flags, opts: opts}
}

// Suppress excludes id from the next arbitration only. The power duty can
// still be chosen as the fallback.
func (a *Arbiter) Suppress(id task.ID) {
	a.suppressed.Or(1 << uint(id))
}

// Select returns the next duty to dispatch. It never fails: predicate faults
// count as "not due" and an empty round ends in the power fallback.
func (a *Arbiter) Select(ctx context.Context) Decision {
	logger := ctxlog.FromContext(ctx)
	skip := a.suppressed.Swap(0)
	power := a.reg.Power().ID

	if a.flags.TestAndClear(status.StatusGroup, status.ModeSwitch) {
		logger.Debug("Mode switch pending, forcing power duty.", "task", power)
		return Decision{ID: power, Reason: ReasonForced}
	}

	descriptors := a.reg.All()
	for poll := 1; poll <= a.opts.RepollLimit+1; poll++ {
		for _, d := range descriptors {
			if skip&(1<<uint(d.ID)) != 0 {
				continue
			}
			due, err := readiness.Evaluate(ctx, d.Ready)
			if err != nil {
				logger.Warn("Readiness predicate failed, treating as not due.", "task", d.ID, "error", err)
				continue
			}
			if due {
				return Decision{ID: d.ID, Reason: ReasonReady, Polls: poll}
			}
		}
		if poll > a.opts.RepollLimit {
			break
		}
		if err := workload.Sleep(ctx, a.opts.RepollBackoff); err != nil && ctx.Err() != nil {
			return Decision{ID: power, Reason: ReasonFallback, Polls: poll}
		}
	}

	logger.Debug("No duty due, falling back to power duty.", "task", power)
	return Decision{ID: power, Reason: ReasonFallback, Polls: a.opts.RepollLimit + 1}
}
