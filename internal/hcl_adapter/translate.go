// This file contains the logic for merging the decoded HCL blocks over the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/task"
)

// translate merges every block found in one file into model.
func (l *Loader) translate(ctx context.Context, root *fileRoot, model *config.Model) error {
	if b := root.Kernel; b != nil {
		d := l.decoder(ctx, "kernel")
		d.duration(b.TickInterval, "tick_interval", &model.Kernel.TickInterval)
		d.value(b.Seed, "seed", &model.Kernel.Seed)
		d.value(b.MaxTicks, "max_ticks", &model.Kernel.MaxTicks)
		if d.err != nil {
			return d.err
		}
	}

	if b := root.Scheduler; b != nil {
		d := l.decoder(ctx, "scheduler")
		s := &model.Scheduler
		d.value(b.CleanupOnAbort, "cleanup_on_abort", &s.CleanupOnAbort)
		d.value(b.RepollLimit, "repoll_limit", &s.RepollLimit)
		d.duration(b.RepollBackoff, "repoll_backoff", &s.RepollBackoff)
		d.value(b.ConfigureFailure, "configure_failure", &s.ConfigureFailure)
		d.value(b.ConfigureRetries, "configure_retries", &s.ConfigureRetries)
		if d.err != nil {
			return d.err
		}
	}

	if b := root.Boot; b != nil {
		d := l.decoder(ctx, "boot")
		s := &model.Boot
		d.duration(b.DeploymentWait, "deployment_wait", &s.DeploymentWait)
		d.duration(b.BackupRestoreDelay, "backup_restore_delay", &s.BackupRestoreDelay)
		d.value(b.SkipStartup, "skip_startup", &s.SkipStartup)
		d.value(b.Store, "store", &s.Store)
		d.value(b.Path, "path", &s.Path)
		d.value(b.Table, "table", &s.Table)
		d.value(b.Endpoint, "endpoint", &s.Endpoint)
		d.value(b.Region, "region", &s.Region)
		d.value(b.SatelliteID, "satellite_id", &s.SatelliteID)
		if d.err != nil {
			return d.err
		}
	}

	if b := root.Power; b != nil {
		d := l.decoder(ctx, "power")
		s := &model.Power
		d.value(b.Policy, "policy", &s.Policy)
		d.value(b.Probability, "probability", &s.Probability)
		d.value(b.Critical, "critical", &s.Critical)
		d.value(b.Capacity, "capacity", &s.Capacity)
		d.value(b.Initial, "initial", &s.Initial)
		d.value(b.DrainPerSecond, "drain_per_second", &s.DrainPerSecond)
		d.value(b.ChargePerSecond, "charge_per_second", &s.ChargePerSecond)
		if d.err != nil {
			return d.err
		}
	}

	seen := make(map[task.ID]bool, len(root.Tasks))
	for _, b := range root.Tasks {
		if err := l.translateTask(ctx, b, model, seen); err != nil {
			return err
		}
	}

	if b := root.Telemetry; b != nil {
		d := l.decoder(ctx, "telemetry")
		s := &model.Telemetry
		d.value(b.SocketIOURL, "socketio_url", &s.SocketIOURL)
		d.value(b.Namespace, "namespace", &s.Namespace)
		d.value(b.KafkaBrokers, "kafka_brokers", &s.KafkaBrokers)
		d.value(b.KafkaTopic, "kafka_topic", &s.KafkaTopic)
		d.value(b.Every, "every", &s.Every)
		d.value(b.Buffer, "buffer", &s.Buffer)
		if d.err != nil {
			return d.err
		}
	}

	if b := root.Health; b != nil {
		d := l.decoder(ctx, "health")
		d.value(b.Port, "port", &model.Health.Port)
		if d.err != nil {
			return d.err
		}
	}
	return nil
}

// translateTask applies one `task "<name>"` block. The label must name a
// known duty and may appear only once per file.
func (l *Loader) translateTask(ctx context.Context, b *taskBlock, model *config.Model, seen map[task.ID]bool) error {
	id, err := task.ParseID(b.Name)
	if err != nil {
		return fmt.Errorf("task block: %w (known tasks: %s)", err, knownTasks())
	}
	if seen[id] {
		return fmt.Errorf("task %q is configured twice", id)
	}
	seen[id] = true

	logger := ctxlog.FromContext(ctx).With("task", id)
	logger.Debug("Translating HCL task block.")

	t := model.Tasks[id]
	d := l.decoder(ctxlog.WithLogger(ctx, logger), fmt.Sprintf("task.%s", id))
	d.float(b.Probability, "probability", &t.Probability)
	d.value(b.Ready, "ready", &t.Ready)
	d.duration(b.RunMin, "run_min", &t.RunMin)
	d.duration(b.RunMax, "run_max", &t.RunMax)
	d.duration(b.Quantum, "quantum", &t.Quantum)
	d.value(b.Load, "load", &t.Load)
	if d.err != nil {
		return d.err
	}
	model.Tasks[id] = t
	return nil
}
