package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/intellisat/internal/app"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/specialistvlad/intellisat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A battery that drains fast and starts just above the threshold, so the
// first detumble run crosses it.
const lowBattery = `
boot {
  deployment_wait      = "1ms"
  backup_restore_delay = "1ms"
}

power {
  policy            = "expression"
  critical          = "battery.voltage < 20"
  initial           = 30
  drain_per_second  = 100
  charge_per_second = 500
}

task "detumble" {
  probability = 1
  run_min     = "200ms"
  run_max     = "200ms"
  quantum     = "10ms"
}
`

// longCharge keeps the forced power duty running until shutdown.
const longCharge = `
task "charging" {
  run_min = "5s"
  run_max = "5s"
  quantum = "10ms"
}
`

// Test for: a battery crossing the threshold mid-run preempts the running
// duty, and the power duty is forced at the next arbitration.
func TestPowerPolicy_LowBatteryPreemptsAndCharges(t *testing.T) {
	// --- Arrange ---
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// --- Act ---
	result := testutil.RunApp(ctx, t, map[string]string{"kernel.hcl": lowBattery}, app.Config{
		Ticks:        1500,
		TickInterval: time.Millisecond,
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	require.NoError(t, ctx.Err())

	preempts := result.Events.Filter(telemetry.KindPreempt)
	require.NotEmpty(t, preempts, "the drained battery must preempt a running duty")
	assert.Equal(t, "detumble", preempts[0].Task)

	forced := false
	for _, ev := range result.Events.Filter(telemetry.KindSelected) {
		if ev.Task == "charging" && ev.Detail == "forced" {
			forced = true
			break
		}
	}
	assert.True(t, forced, "the power duty must be forced after a preemption")

	snap := result.App.Kernel().Snapshot()
	assert.Positive(t, snap.Preemptions)
	assert.Positive(t, snap.Stats["detumble"].Aborted)
	assert.Empty(t, result.App.Bus().Holdings(), "cleanup on abort releases the peripherals")
}

// Test for: with cleanup on abort turned off, a preempted duty keeps its
// peripherals.
func TestPowerPolicy_AbortWithoutCleanupLeaksPeripherals(t *testing.T) {
	// --- Arrange ---
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// --- Act ---
	result := testutil.RunApp(ctx, t, map[string]string{
		"kernel.hcl":    lowBattery,
		"charging.hcl":  longCharge,
		"scheduler.hcl": "scheduler {\n  cleanup_on_abort = false\n}\n",
	}, app.Config{Ticks: 400, TickInterval: time.Millisecond})

	// --- Assert ---
	require.NoError(t, result.Err)
	require.NotEmpty(t, result.Events.Filter(telemetry.KindPreempt))
	assert.NotEmpty(t, result.Events.Filter(telemetry.KindCleanupSkipped))

	holder, held := result.App.Bus().Holder("magnetorquer")
	assert.True(t, held, "the preempted detumble run never released the magnetorquer")
	assert.Equal(t, task.Detumble, holder)
	_, held = result.App.Bus().Holder("solar_array")
	assert.False(t, held, "the power duty stopped by shutdown still cleaned up")
}
