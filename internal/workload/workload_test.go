package workload

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleep_ReturnsCauseOnCancel(t *testing.T) {
	t.Parallel()
	cause := errors.New("preempted")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, cause)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleep_Completes(t *testing.T) {
	t.Parallel()
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestProfile_PickStaysOnGrid(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(1, 2))
	seen := map[time.Duration]bool{}
	for i := 0; i < 2000; i++ {
		d := DefaultProfile.Pick(rng)
		require.GreaterOrEqual(t, d, DefaultProfile.Min)
		require.LessOrEqual(t, d, DefaultProfile.Max)
		require.Zero(t, (d-DefaultProfile.Min)%DefaultProfile.Quantum)
		seen[d] = true
	}
	assert.Len(t, seen, 11, "all eleven run lengths should be reachable")

	fixed := Profile{Min: 5 * time.Millisecond}
	assert.Equal(t, 5*time.Millisecond, fixed.Pick(rng))
}

func TestSteps_ReportsEachSliceAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	var slices []time.Duration
	err := Steps(context.Background(), 5*time.Millisecond, 2*time.Millisecond, func(d time.Duration) {
		slices = append(slices, d)
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 2 * time.Millisecond, time.Millisecond}, slices)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = Steps(ctx, time.Hour, time.Millisecond, func(time.Duration) {
		calls++
		if calls == 3 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls)
}
