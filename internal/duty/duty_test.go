package duty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/intellisat/internal/peripheral"
	"github.com/specialistvlad/intellisat/internal/power"
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quick = workload.Profile{Min: 2 * time.Millisecond, Max: 2 * time.Millisecond, Quantum: time.Millisecond}

func TestConfigure_IsIdempotent(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	bus := peripheral.NewBus()
	d := New(task.Comms, Env{Bus: bus}, Params{Peripherals: []string{"transceiver", "antenna"}})

	// --- Act ---
	require.NoError(t, d.Configure(context.Background()))
	first := bus.Holdings()
	require.NoError(t, d.Configure(context.Background()))

	// --- Assert ---
	assert.Equal(t, first, bus.Holdings(), "configuring a configured duty changes nothing")
	assert.Equal(t, map[string]task.ID{"transceiver": task.Comms, "antenna": task.Comms}, bus.Holdings())
}

func TestConfigure_RollsBackOnFailure(t *testing.T) {
	t.Parallel()
	bus := peripheral.NewBus()
	bus.Fault("antenna", errors.New("deploy hinge stuck"))
	d := New(task.Comms, Env{Bus: bus}, Params{Peripherals: []string{"transceiver", "antenna"}})

	err := d.Configure(context.Background())

	require.ErrorIs(t, err, peripheral.ErrNotResponding)
	assert.Empty(t, bus.Holdings(), "partial claims are released")
}

func TestConfigure_BusyPeripheral(t *testing.T) {
	t.Parallel()
	bus := peripheral.NewBus()
	require.NoError(t, bus.Claim("imu", task.Detumble))
	d := New(task.MRW, Env{Bus: bus}, Params{Peripherals: []string{"reaction_wheel", "imu"}})

	err := d.Configure(context.Background())

	require.ErrorIs(t, err, peripheral.ErrBusy)
	holder, _ := bus.Holder("imu")
	assert.Equal(t, task.Detumble, holder)
	_, held := bus.Holder("reaction_wheel")
	assert.False(t, held)
}

func TestRunAndCleanup_LoadBatteryAndRelease(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	bus := peripheral.NewBus()
	battery := power.NewBattery(power.BatteryConfig{Capacity: 100, Initial: 50, DrainPerSecond: 1000, ChargePerSecond: 1000})
	env := Env{Bus: bus, Battery: battery}
	worker := New(task.HDD, env, Params{Profile: quick, Peripherals: []string{"storage"}})
	charger := New(task.Charging, env, Params{Profile: quick, Charges: true})
	ctx := context.Background()

	// --- Act & Assert ---
	require.NoError(t, worker.Configure(ctx))
	require.NoError(t, worker.Run(ctx))
	assert.Less(t, battery.Voltage(), 50.0, "ordinary duties drain the battery")

	require.NoError(t, worker.Cleanup(ctx, task.RunResult{}))
	assert.Empty(t, bus.Holdings())

	drained := battery.Voltage()
	require.NoError(t, charger.Run(ctx))
	assert.Greater(t, battery.Voltage(), drained, "the charging duty refills it")
}

func TestRun_ReturnsPromptlyWhenCancelled(t *testing.T) {
	t.Parallel()
	d := New(task.ECC, Env{}, Params{Profile: workload.Profile{Min: time.Hour, Max: time.Hour, Quantum: time.Minute}})
	errAbort := errors.New("abort")
	ctx, cancel := context.WithCancelCause(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel(errAbort)
	}()
	start := time.Now()
	err := d.Run(ctx)

	assert.ErrorIs(t, err, errAbort)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCleanup_LeavesOtherOwnersAlone(t *testing.T) {
	t.Parallel()
	bus := peripheral.NewBus()
	require.NoError(t, bus.Claim("dma", task.HDD))
	d := New(task.ECC, Env{Bus: bus}, Params{Peripherals: []string{"dma"}})

	require.NoError(t, d.Cleanup(context.Background(), task.RunResult{Aborted: true}))

	holder, held := bus.Holder("dma")
	assert.True(t, held)
	assert.Equal(t, task.HDD, holder)
}

func TestDescriptor_ExplicitZeroProbabilityIsNeverDue(t *testing.T) {
	t.Parallel()
	zero := 0.0
	d := Descriptor(task.ECC, Env{Seed: 2}, Params{Probability: &zero})

	b, ok := d.Ready.(*readiness.Bernoulli)
	require.True(t, ok)
	assert.Zero(t, b.Probability())
	for i := 0; i < 200; i++ {
		due, err := b.Due(context.Background())
		require.NoError(t, err)
		require.False(t, due)
	}
}

func TestDescriptor_DefaultsToReferenceProbability(t *testing.T) {
	t.Parallel()
	d := Descriptor(task.Detumble, Env{Seed: 2}, Params{})

	b, ok := d.Ready.(*readiness.Bernoulli)
	require.True(t, ok)
	assert.Equal(t, DefaultProbability, b.Probability())
	assert.Equal(t, task.Detumble, d.ID)
	assert.NotNil(t, d.Duty)
}
