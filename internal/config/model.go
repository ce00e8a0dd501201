package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/intellisat/internal/task"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Boot store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreDynamo = "dynamodb"
)

// Power policies.
const (
	PolicyBernoulli  = "bernoulli"
	PolicyExpression = "expression"
)

// Model is the unified representation of the kernel configuration.
type Model struct {
	Kernel    Kernel
	Scheduler Scheduler
	Boot      Boot
	Power     Power
	// Tasks holds per-duty overrides keyed by task id. The flight order is
	// fixed and cannot be changed here.
	Tasks     map[task.ID]Task
	Telemetry Telemetry
	Health    Health
}

// Kernel holds the timer and simulation settings.
type Kernel struct {
	TickInterval time.Duration
	Seed         uint64
	// MaxTicks stops the simulation after that many ticks; 0 runs forever.
	MaxTicks uint64
}

// Scheduler holds the arbiter and dispatcher settings.
type Scheduler struct {
	CleanupOnAbort   bool
	RepollLimit      int
	RepollBackoff    time.Duration
	ConfigureFailure string
	ConfigureRetries int
}

// Boot holds the startup sequence and boot store settings.
type Boot struct {
	DeploymentWait     time.Duration
	BackupRestoreDelay time.Duration
	SkipStartup        bool
	Store              string
	Path               string
	Table              string
	Endpoint           string
	Region             string
	SatelliteID        string
}

// Power holds the battery model and the power-critical policy.
type Power struct {
	Policy string
	// Probability is used by the bernoulli policy.
	Probability float64
	// Critical is used by the expression policy, e.g. `battery.voltage < 20`.
	Critical        string
	Capacity        float64
	Initial         float64
	DrainPerSecond  float64
	ChargePerSecond float64
}

// Task tunes one duty. Zero fields keep the duty's defaults.
type Task struct {
	// Probability of being due on each poll. Ignored when Ready is set.
	// Nil keeps the duty's default; an explicit zero disables the duty.
	Probability *float64
	// Ready is an optional expression predicate.
	Ready   string
	RunMin  time.Duration
	RunMax  time.Duration
	Quantum time.Duration
	Load    float64
}

// Telemetry holds the downlink sinks.
type Telemetry struct {
	SocketIOURL  string
	Namespace    string
	KafkaBrokers []string
	KafkaTopic   string
	// Every samples one tick event per that many ticks; 0 disables them.
	Every  uint64
	Buffer int
}

// Health holds the status server settings. Port 0 disables it.
type Health struct {
	Port int
}

// Default returns the configuration that reproduces the reference
// behaviour. Tasks is empty: a zero field in a Task keeps the duty's own
// default (one poll in four, runs between 10ms and 1010ms on a 100ms grid,
// charging due one poll in 101).
func Default() *Model {
	return &Model{
		Kernel: Kernel{TickInterval: 10 * time.Millisecond, Seed: 2},
		Scheduler: Scheduler{
			CleanupOnAbort:   true,
			RepollLimit:      3,
			ConfigureFailure: "retry",
			ConfigureRetries: 2,
		},
		Boot: Boot{
			DeploymentWait:     5 * time.Second,
			BackupRestoreDelay: 5 * time.Second,
			Store:              StoreMemory,
			Region:             "us-east-2",
		},
		Power: Power{
			Policy:          PolicyBernoulli,
			Probability:     1.0 / 101,
			Critical:        "battery.voltage < 20",
			Capacity:        100,
			Initial:         80,
			DrainPerSecond:  1.5,
			ChargePerSecond: 6,
		},
		Tasks: make(map[task.ID]Task),
		Telemetry: Telemetry{
			Namespace:  "/telemetry",
			KafkaTopic: "intellisat-telemetry",
			Buffer:     256,
		},
	}
}

// Validate reports every invalid field, each wrapped in ErrInvalid.
func (m *Model) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if m.Kernel.TickInterval <= 0 {
		bad("kernel.tick_interval must be positive, got %s", m.Kernel.TickInterval)
	}
	if m.Scheduler.RepollLimit < 0 {
		bad("scheduler.repoll_limit must not be negative, got %d", m.Scheduler.RepollLimit)
	}
	if m.Scheduler.RepollBackoff < 0 {
		bad("scheduler.repoll_backoff must not be negative, got %s", m.Scheduler.RepollBackoff)
	}
	switch m.Scheduler.ConfigureFailure {
	case "retry", "skip", "fallback":
	default:
		bad("scheduler.configure_failure must be retry, skip or fallback, got %q", m.Scheduler.ConfigureFailure)
	}
	if m.Scheduler.ConfigureRetries < 0 {
		bad("scheduler.configure_retries must not be negative, got %d", m.Scheduler.ConfigureRetries)
	}

	if m.Boot.DeploymentWait < 0 || m.Boot.BackupRestoreDelay < 0 {
		bad("boot waits must not be negative")
	}
	switch m.Boot.Store {
	case StoreMemory:
	case StoreFile:
		if m.Boot.Path == "" {
			bad("boot.path is required for the file store")
		}
	case StoreDynamo:
		if m.Boot.Table == "" {
			bad("boot.table is required for the dynamodb store")
		}
	default:
		bad("boot.store must be memory, file or dynamodb, got %q", m.Boot.Store)
	}

	switch m.Power.Policy {
	case PolicyBernoulli:
		if m.Power.Probability < 0 || m.Power.Probability > 1 {
			bad("power.probability must be within [0, 1], got %g", m.Power.Probability)
		}
	case PolicyExpression:
		if m.Power.Critical == "" {
			bad("power.critical is required for the expression policy")
		}
	default:
		bad("power.policy must be bernoulli or expression, got %q", m.Power.Policy)
	}
	if m.Power.Capacity <= 0 {
		bad("power.capacity must be positive, got %g", m.Power.Capacity)
	}

	for _, id := range task.IDs() {
		t, ok := m.Tasks[id]
		if !ok {
			continue
		}
		if p := t.Probability; p != nil && (*p < 0 || *p > 1) {
			bad("task %q: probability must be within [0, 1], got %g", id, *p)
		}
		if t.RunMin < 0 || (t.RunMax != 0 && t.RunMax < t.RunMin) {
			bad("task %q: run_min must not exceed run_max", id)
		}
		if t.Quantum < 0 || t.Load < 0 {
			bad("task %q: quantum and load must not be negative", id)
		}
	}

	if m.Health.Port < 0 || m.Health.Port > 65535 {
		bad("health.port out of range: %d", m.Health.Port)
	}
	return errors.Join(errs...)
}
