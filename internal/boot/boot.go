// Package boot runs the one-time startup sequence before the dispatch loop
// begins: restore the boot record, count the reboot, and either sit out the
// post-deployment quiet period (first boot) or restore backups.
package boot

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/specialistvlad/intellisat/internal/workload"
)

const (
	// FlightDeploymentWait is the regulatory quiet period after release.
	FlightDeploymentWait = 30 * time.Minute
	// DefaultDeploymentWait is the shortened wait used by simulation.
	DefaultDeploymentWait = 5 * time.Second
	// DefaultBackupRestoreDelay is how long restoring backups takes.
	DefaultBackupRestoreDelay = 5 * time.Second
)

// Options configures the startup sequence.
type Options struct {
	DeploymentWait     time.Duration
	BackupRestoreDelay time.Duration
	// SkipStartup marks the quiet period as already served.
	SkipStartup bool
	Sink        telemetry.Sink
	// Sleep and Now are replaceable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// DefaultOptions returns the simulation defaults.
func DefaultOptions() Options {
	return Options{
		DeploymentWait:     DefaultDeploymentWait,
		BackupRestoreDelay: DefaultBackupRestoreDelay,
	}
}

// Sequencer runs the startup sequence against a store and the flag set.
type Sequencer struct {
	store bootstore.Store
	flags *status.Flags
	opts  Options
}

// New creates a sequencer.
func New(store bootstore.Store, flags *status.Flags, opts Options) *Sequencer {
	if opts.Sink == nil {
		opts.Sink = telemetry.Nop{}
	}
	if opts.Sleep == nil {
		opts.Sleep = workload.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sequencer{store: store, flags: flags, opts: opts}
}

// Startup runs the sequence once. A record that cannot be loaded is
// treated as a first boot; a record that cannot be saved is logged and
// ignored. The only error returned is ctx's, when it is cancelled during a
// wait, in which case the start flag is left as it was.
func (s *Sequencer) Startup(ctx context.Context) (bootstore.State, error) {
	logger := ctxlog.FromContext(ctx)

	st, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, bootstore.ErrNotFound):
		logger.Debug("No boot state stored yet.")
		st = bootstore.State{}
	case err != nil:
		logger.Warn("Failed to load boot state, falling back to first boot.", "error", err)
		st = bootstore.State{}
	}

	if s.opts.SkipStartup {
		st.Started = true
	}
	if st.Started {
		s.flags.Set(status.StatusGroup, status.Start)
	}
	st.RebootCount++
	s.save(ctx, st)

	firstBoot := !s.flags.Test(status.StatusGroup, status.Start)
	if firstBoot {
		logger.Info("🛰️ First startup detected, waiting out deployment period.", "wait", s.opts.DeploymentWait, "reboot", st.RebootCount)
		if err := s.opts.Sleep(ctx, s.opts.DeploymentWait); err != nil {
			return st, err
		}
		// Set only after the full wait, so a reset during it repeats the wait.
		s.flags.Set(status.StatusGroup, status.Start)
		st.Started = true
	} else {
		logger.Info("💾 Loading backups.", "delay", s.opts.BackupRestoreDelay, "reboot", st.RebootCount)
		if err := s.opts.Sleep(ctx, s.opts.BackupRestoreDelay); err != nil {
			return st, err
		}
	}

	st.UpdatedAt = s.opts.Now().UnixMilli()
	s.save(ctx, st)

	detail := "restored"
	if firstBoot {
		detail = "first_boot"
	}
	s.opts.Sink.Emit(ctx, telemetry.Event{Kind: telemetry.KindBoot, Reboot: st.RebootCount, Detail: detail})
	logger.Info("✅ Startup complete.", "reboot", st.RebootCount, "first_boot", firstBoot)
	return st, nil
}

func (s *Sequencer) save(ctx context.Context, st bootstore.State) {
	if err := s.store.Save(ctx, st); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to save boot state.", "error", err)
	}
}
