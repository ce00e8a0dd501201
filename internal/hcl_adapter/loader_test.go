package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHCL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ptr[T any](v T) *T { return &v }

func TestLoad_OverridesOnlyWhatIsWritten(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	path := writeHCL(t, dir, "kernel.hcl", `
kernel {
  tick_interval = "20ms"
  max_ticks     = 500
}

scheduler {
  cleanup_on_abort  = false
  configure_failure = "skip"
}

boot {
  store = "file"
  path  = "boot.hcl"
}

power {
  policy   = "expression"
  critical = "battery.voltage < 25"
}

task "comms" {
  probability = 0.5
  run_max     = "200ms"
  load        = 3
}

telemetry {
  kafka_brokers = ["a:9092", "b:9092"]
  every         = 10
}
`)

	// --- Act ---
	m, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	want := config.Default()
	want.Kernel.TickInterval = 20 * time.Millisecond
	want.Kernel.MaxTicks = 500
	want.Scheduler.CleanupOnAbort = false
	want.Scheduler.ConfigureFailure = "skip"
	want.Boot.Store = config.StoreFile
	want.Boot.Path = "boot.hcl"
	want.Power.Policy = config.PolicyExpression
	want.Power.Critical = "battery.voltage < 25"
	want.Tasks[task.Comms] = config.Task{Probability: ptr(0.5), RunMax: 200 * time.Millisecond, Load: 3}
	want.Telemetry.KafkaBrokers = []string{"a:9092", "b:9092"}
	want.Telemetry.Every = 10

	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NoFilesGivesDefaults(t *testing.T) {
	t.Parallel()
	m, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), m)
}

func TestLoad_ExplicitZeroProbabilityIsKept(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	path := writeHCL(t, t.TempDir(), "kernel.hcl", `
task "hdd" {
  probability = 0
}

task "mrw" {
  load = 2
}
`)

	// --- Act ---
	m, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, m.Tasks[task.HDD].Probability)
	assert.Zero(t, *m.Tasks[task.HDD].Probability)
	assert.Nil(t, m.Tasks[task.MRW].Probability, "an omitted probability keeps the duty default")
}

func TestLoad_DirectoryMergesInOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeHCL(t, dir, "a/base.hcl", `kernel { seed = 7 }`)
	writeHCL(t, dir, "b/override.hcl", `kernel { seed = 9 }`)
	writeHCL(t, dir, "notes.txt", `kernel { seed = 1 }`)

	m, err := NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, uint64(9), m.Kernel.Seed)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown task label",
			content: `task "laser" { probability = 0.1 }`,
			wantErr: `unknown task "laser"`,
		},
		{
			name:    "duplicate task",
			content: "task \"hdd\" {}\ntask \"hdd\" {}",
			wantErr: `task "hdd" is configured twice`,
		},
		{
			name:    "bad duration",
			content: `kernel { tick_interval = "soon" }`,
			wantErr: "kernel.tick_interval",
		},
		{
			name:    "wrong type",
			content: `scheduler { repoll_limit = "many" }`,
			wantErr: "scheduler.repoll_limit",
		},
		{
			name:    "unknown attribute",
			content: `health { address = ":8080" }`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "syntax error",
			content: `kernel {`,
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "invalid value",
			content: `power { probability = 2 }`,
			wantErr: "power.probability must be within",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeHCL(t, t.TempDir(), "kernel.hcl", tc.content)

			_, err := NewLoader().Load(context.Background(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_InvalidValueWrapsErrInvalid(t *testing.T) {
	t.Parallel()
	path := writeHCL(t, t.TempDir(), "kernel.hcl", `boot { store = "tape" }`)

	_, err := NewLoader().Load(context.Background(), path)

	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoad_ShippedExample(t *testing.T) {
	t.Parallel()
	m, err := NewLoader().Load(context.Background(), filepath.Join("..", "..", "config", "intellisat.hcl"))

	require.NoError(t, err)
	assert.Equal(t, config.PolicyExpression, m.Power.Policy)
	assert.Equal(t, 8080, m.Health.Port)
	assert.Equal(t, 2.0, m.Tasks[task.Comms].Load)
	assert.Equal(t, 1010*time.Millisecond, m.Tasks[task.Detumble].RunMax)
}
