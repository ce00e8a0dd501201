package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
)

// Run executes the boot sequence and then the kernel until ctx is cancelled
// or the configured tick limit is reached. Both are clean exits.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.close(ctx)

	if a.model.Health.Port > 0 {
		if err := a.startHealthcheckServer(ctx, a.model.Health.Port); err != nil {
			return err
		}
		defer a.closeHealthcheckServer(ctx)
	}

	a.logger.Info("🛰️ Flight computer starting.", "tasks", a.registry.Len(), "seed", a.model.Kernel.Seed)
	st, err := a.boot.Startup(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.logger.Info("Startup interrupted.", "cause", err)
			return nil
		}
		return fmt.Errorf("startup failed: %w", err)
	}
	a.bootState.Store(&st)

	if err := a.kernel.Run(ctx); err != nil {
		return fmt.Errorf("kernel stopped: %w", err)
	}

	snap := a.kernel.Snapshot()
	a.logger.Info("🏁 Flight computer stopped.", "ticks", snap.Ticks, "cycles", snap.Cycles, "preemptions", snap.Preemptions, "battery", a.battery.Voltage())
	a.logger.Debug("App.Run method finished.")
	return nil
}

// close releases the telemetry downlinks. It runs after the kernel stopped,
// so nothing emits any more.
func (a *App) close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to close telemetry sink.", "error", err)
		}
	}
	a.closers = nil
}
