package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/intellisat/internal/app"
	"github.com/specialistvlad/intellisat/internal/hcl_adapter"
	"github.com/specialistvlad/intellisat/internal/inmemorystore"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Events    *telemetry.Recorder
}

// RunApp writes files (relative path → HCL content) into a temporary
// directory, builds an App from them and runs it until it stops on its own
// or ctx is done. Unless the caller injects a store or names a boot-state
// file, the boot record lives in memory. Telemetry goes to a Recorder unless
// the caller brings a sink. Construction errors are reported
// in Err with a nil App.
func RunApp(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg.ConfigPaths = append(cfg.ConfigPaths, tmpDir)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.BootStore == nil && cfg.BootStatePath == "" {
		cfg.BootStore = inmemorystore.New()
	}
	events := telemetry.NewRecorder(0)
	if cfg.Sink == nil {
		cfg.Sink = events
	}

	logBuffer := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("INTELLISAT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	testApp, err := app.NewApp(logBuffer, &cfg, hcl_adapter.NewLoader(), modules...)
	if err != nil {
		return &HarnessResult{LogOutput: logBuffer.String(), Err: err, Events: events}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Events:    events,
	}
}
