package config

import (
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	m := Default()

	require.NoError(t, m.Validate())
	assert.Equal(t, 10*time.Millisecond, m.Kernel.TickInterval)
	assert.True(t, m.Scheduler.CleanupOnAbort)
	assert.Equal(t, 3, m.Scheduler.RepollLimit)
	assert.InDelta(t, 1.0/101, m.Power.Probability, 1e-12)
	assert.Empty(t, m.Tasks)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	m := Default()
	m.Kernel.TickInterval = 0
	m.Scheduler.ConfigureFailure = "panic"
	m.Boot.Store = StoreFile
	m.Power.Policy = PolicyExpression
	m.Power.Critical = ""
	tooLikely := 1.5
	m.Tasks[task.Comms] = Task{Probability: &tooLikely}
	m.Tasks[task.HDD] = Task{RunMin: time.Second, RunMax: time.Millisecond}

	// --- Act ---
	err := m.Validate()

	// --- Assert ---
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	for _, want := range []string{
		"kernel.tick_interval",
		"scheduler.configure_failure",
		"boot.path",
		"power.critical",
		`task "comms": probability`,
		`task "hdd": run_min`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_StoreRequirements(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		boot    Boot
		wantErr bool
	}{
		{name: "memory", boot: Boot{Store: StoreMemory}},
		{name: "file with path", boot: Boot{Store: StoreFile, Path: "boot.hcl"}},
		{name: "dynamo with table", boot: Boot{Store: StoreDynamo, Table: "boot"}},
		{name: "dynamo without table", boot: Boot{Store: StoreDynamo}, wantErr: true},
		{name: "unknown", boot: Boot{Store: "floppy"}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := Default()
			m.Boot = tc.boot
			err := m.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
