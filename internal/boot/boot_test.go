package boot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/specialistvlad/intellisat/internal/inmemorystore"
	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder replaces the real wait and records every requested duration.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
	err   error
}

func (r *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return r.err
}

func testOptions(rec *sleepRecorder, sink telemetry.Sink) Options {
	return Options{
		DeploymentWait:     30 * time.Minute,
		BackupRestoreDelay: 5 * time.Second,
		Sleep:              rec.Sleep,
		Now:                func() time.Time { return time.UnixMilli(1760000000000) },
		Sink:               sink,
	}
}

// TestScenario_FirstBoot covers the very first activation after deployment.
func TestScenario_FirstBoot(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	store := inmemorystore.New()
	flags := status.New()
	rec := &sleepRecorder{}
	events := telemetry.NewRecorder(0)
	seq := New(store, flags, testOptions(rec, events))

	// --- Act ---
	st, err := seq.Startup(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Minute}, rec.waits, "the deployment wait elapses exactly once")
	assert.True(t, flags.Test(status.StatusGroup, status.Start))
	assert.Equal(t, 1, st.RebootCount)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bootstore.State{Started: true, RebootCount: 1, UpdatedAt: 1760000000000}, saved)

	boots := events.Filter(telemetry.KindBoot)
	require.Len(t, boots, 1)
	assert.Equal(t, "first_boot", boots[0].Detail)
	assert.Equal(t, 1, boots[0].Reboot)
}

func TestStartup_LaterBootRestoresBackups(t *testing.T) {
	t.Parallel()
	store := inmemorystore.NewWithState(bootstore.State{Started: true, RebootCount: 3})
	flags := status.New()
	rec := &sleepRecorder{}
	seq := New(store, flags, testOptions(rec, nil))

	st, err := seq.Startup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.waits)
	assert.Equal(t, 4, st.RebootCount)
	assert.True(t, flags.Test(status.StatusGroup, status.Start))
}

func TestStartup_TwoBootsCountTwice(t *testing.T) {
	t.Parallel()
	store := inmemorystore.New()
	rec := &sleepRecorder{}

	_, err := New(store, status.New(), testOptions(rec, nil)).Startup(context.Background())
	require.NoError(t, err)
	st, err := New(store, status.New(), testOptions(rec, nil)).Startup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, st.RebootCount)
	assert.Equal(t, []time.Duration{30 * time.Minute, 5 * time.Second}, rec.waits)
}

func TestStartup_LoadFailureFallsBackToFirstBoot(t *testing.T) {
	t.Parallel()
	store := inmemorystore.NewWithState(bootstore.State{Started: true, RebootCount: 9})
	store.FailLoad(errors.New("flash CRC mismatch"))
	flags := status.New()
	rec := &sleepRecorder{}

	st, err := New(store, flags, testOptions(rec, nil)).Startup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, st.RebootCount)
	assert.Equal(t, []time.Duration{30 * time.Minute}, rec.waits)
	assert.True(t, flags.Test(status.StatusGroup, status.Start))
}

func TestStartup_SaveFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	store := inmemorystore.New()
	store.FailSave(errors.New("flash write protected"))
	rec := &sleepRecorder{}

	st, err := New(store, status.New(), testOptions(rec, nil)).Startup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, st.RebootCount)
	assert.Zero(t, store.Saves())
}

func TestStartup_SkipStartupPresetsStart(t *testing.T) {
	t.Parallel()
	rec := &sleepRecorder{}
	opts := testOptions(rec, nil)
	opts.SkipStartup = true
	flags := status.New()

	st, err := New(inmemorystore.New(), flags, opts).Startup(context.Background())

	require.NoError(t, err)
	assert.True(t, st.Started)
	assert.Equal(t, 1, st.RebootCount)
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.waits, "no deployment wait when startup is skipped")
}

func TestStartup_InterruptedWaitLeavesStartUnset(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	store := inmemorystore.New()
	flags := status.New()
	rec := &sleepRecorder{err: context.Canceled}

	// --- Act ---
	_, err := New(store, flags, testOptions(rec, nil)).Startup(context.Background())

	// --- Assert ---
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, flags.Test(status.StatusGroup, status.Start))
	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, saved.Started, "the next boot repeats the wait")
	assert.Equal(t, 1, saved.RebootCount, "the reboot was still counted")
}

func TestStartup_RealSleepHonoursContext(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	opts.DeploymentWait = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(inmemorystore.New(), status.New(), opts).Startup(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
