package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/specialistvlad/intellisat/internal/boot"
	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/duty"
	"github.com/specialistvlad/intellisat/internal/executor"
	"github.com/specialistvlad/intellisat/internal/kernel"
	"github.com/specialistvlad/intellisat/internal/peripheral"
	"github.com/specialistvlad/intellisat/internal/power"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/scheduler"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/specialistvlad/intellisat/internal/ticker"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	model    *config.Model
	flags    *status.Flags
	bus      *peripheral.Bus
	battery  *power.Battery
	registry *registry.Registry
	kernel   *kernel.Kernel
	boot     *boot.Sequencer
	sink     telemetry.Sink
	closers  []io.Closer

	bootState  atomic.Pointer[bootstore.State]
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the
// configuration, builds the task table and every collaborator, and returns
// an App ready to Run. Passing modules replaces the flight task table.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loadModel(ctx, cfg, loader, os.LookupEnv)
	if err != nil {
		return nil, err
	}

	a := &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		model:  model,
		flags:  status.New(),
		bus:    peripheral.NewBus(),
	}
	a.battery = power.NewBattery(power.BatteryConfig{
		Capacity:        model.Power.Capacity,
		Initial:         model.Power.Initial,
		DrainPerSecond:  model.Power.DrainPerSecond,
		ChargePerSecond: model.Power.ChargePerSecond,
	})
	env := duty.Env{Bus: a.bus, Battery: a.battery, Seed: model.Kernel.Seed}

	powerDue, urgent, err := powerPolicy(model, env)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		if modules, err = flightModules(env, model, powerDue); err != nil {
			return nil, err
		}
	}

	// A table that does not start with the power duty, or is empty, is a
	// build defect and the kernel never starts.
	a.registry, err = registry.New(modules...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Task table registered.", "count", a.registry.Len())

	policy, err := executor.ParseFailurePolicy(model.Scheduler.ConfigureFailure)
	if err != nil {
		return nil, err
	}
	store := cfg.BootStore
	if store != nil && model.Boot.Store != config.StoreMemory {
		logger.Warn("Injected boot store replaces the configured one.", "configured", model.Boot.Store, "path", model.Boot.Path)
	}
	if store == nil {
		if store, err = newBootStore(ctx, model.Boot); err != nil {
			return nil, err
		}
	}
	a.sink = a.newSink(ctx, model.Telemetry, cfg.Sink)

	a.boot = boot.New(store, a.flags, boot.Options{
		DeploymentWait:     model.Boot.DeploymentWait,
		BackupRestoreDelay: model.Boot.BackupRestoreDelay,
		SkipStartup:        model.Boot.SkipStartup,
		Sink:               a.sink,
	})

	src := cfg.Ticker
	if src == nil {
		src = ticker.NewWall(model.Kernel.TickInterval)
	}
	a.kernel = kernel.New(a.registry, a.flags, src, kernel.Options{
		Arbiter: scheduler.ArbiterOptions{
			RepollLimit:   model.Scheduler.RepollLimit,
			RepollBackoff: model.Scheduler.RepollBackoff,
		},
		Executor: executor.Options{
			CleanupOnAbort:   model.Scheduler.CleanupOnAbort,
			ConfigureFailure: policy,
			ConfigureRetries: model.Scheduler.ConfigureRetries,
		},
		Urgent:         urgent,
		MaxTicks:       model.Kernel.MaxTicks,
		TelemetryEvery: model.Telemetry.Every,
		Sink:           a.sink,
	})
	logger.Debug("Kernel assembled.", "tick_interval", model.Kernel.TickInterval, "cleanup_on_abort", model.Scheduler.CleanupOnAbort)
	return a, nil
}

// Registry returns the application's task table. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Kernel returns the assembled kernel.
func (a *App) Kernel() *kernel.Kernel { return a.kernel }

// Model returns the effective configuration.
func (a *App) Model() *config.Model { return a.model }

// Battery returns the simulated battery.
func (a *App) Battery() *power.Battery { return a.battery }

// Bus returns the peripheral bus shared by the duties.
func (a *App) Bus() *peripheral.Bus { return a.bus }

// BootState returns the record produced by the last boot, if any.
func (a *App) BootState() (bootstore.State, bool) {
	st := a.bootState.Load()
	if st == nil {
		return bootstore.State{}, false
	}
	return *st, true
}
