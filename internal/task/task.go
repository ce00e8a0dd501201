// Package task defines the closed set of satellite duties, the capability
// interface every duty implements, and the descriptor the registry stores
// for each of them.
package task

import (
	"context"
	"fmt"
	"strings"
)

// ID identifies one subsystem duty. The numeric value doubles as the duty's
// mode-bit index in the status flags.
type ID uint8

const (
	Charging ID = iota
	Detumble
	Comms
	HDD
	MRW
	ECC
)

// Count is the number of known duties.
const Count = 6

var names = [Count]string{
	Charging: "charging",
	Detumble: "detumble",
	Comms:    "comms",
	HDD:      "hdd",
	MRW:      "mrw",
	ECC:      "ecc",
}

// String returns the lower-case duty name used in logs, telemetry and config.
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("task(%d)", uint8(id))
	}
	return names[id]
}

// Valid reports whether id names a known duty.
func (id ID) Valid() bool { return id < Count }

// ParseID maps a duty name back to its ID. Matching is case-insensitive.
func ParseID(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown task %q", s)
}

// IDs returns every duty in declaration order.
func IDs() []ID {
	out := make([]ID, Count)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// Phase is the dispatcher state an activation is in.
type Phase uint32

const (
	PhaseSelect Phase = iota
	PhaseConfigure
	PhaseRun
	PhaseAborting
	PhaseCleanup
)

func (p Phase) String() string {
	switch p {
	case PhaseSelect:
		return "select"
	case PhaseConfigure:
		return "configure"
	case PhaseRun:
		return "run"
	case PhaseAborting:
		return "aborting"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// RunResult tells a duty's cleanup how its run phase ended.
type RunResult struct {
	// Aborted is true when the tick handler cancelled the run phase, or when
	// the run phase was skipped because a power override was already pending.
	Aborted bool
	// Cause is the cancellation cause for an aborted run.
	Cause error
	// Err is the error returned by a run phase that was not aborted.
	Err error
}

// Duty is the configure/run/cleanup triad of one subsystem.
//
// Run must return promptly once ctx is cancelled; its waits are the only
// points at which the dispatcher can take the processor back.
type Duty interface {
	Configure(ctx context.Context) error
	Run(ctx context.Context) error
	Cleanup(ctx context.Context, res RunResult) error
}

// Predicate decides whether a duty is due. It must not block and must be
// cheap enough to evaluate on every arbitration and every tick.
type Predicate interface {
	Due(ctx context.Context) (bool, error)
}

// Descriptor is one row of the task table.
type Descriptor struct {
	ID    ID
	Ready Predicate
	Duty  Duty
}
