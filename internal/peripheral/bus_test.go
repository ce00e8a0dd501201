package peripheral

import (
	"errors"
	"testing"

	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_ClaimRelease(t *testing.T) {
	t.Parallel()
	b := NewBus()

	require.NoError(t, b.Claim("radio", task.Comms))
	require.NoError(t, b.Claim("radio", task.Comms), "re-claim by the holder is idempotent")
	require.ErrorIs(t, b.Claim("radio", task.HDD), ErrBusy)

	holder, ok := b.Holder("radio")
	require.True(t, ok)
	assert.Equal(t, task.Comms, holder)

	require.ErrorIs(t, b.Release("radio", task.HDD), ErrNotHeld)
	require.NoError(t, b.Release("radio", task.Comms))
	assert.Empty(t, b.Holdings())
}

func TestBus_Fault(t *testing.T) {
	t.Parallel()
	b := NewBus()
	cause := errors.New("no ack on i2c")

	b.Fault("imu", cause)
	err := b.Claim("imu", task.Detumble)
	require.ErrorIs(t, err, ErrNotResponding)
	require.ErrorIs(t, err, cause)

	b.Fault("imu", nil)
	require.NoError(t, b.Claim("imu", task.Detumble))
}
