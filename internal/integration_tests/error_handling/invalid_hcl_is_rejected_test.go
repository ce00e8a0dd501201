package integration_tests

import (
	"context"
	"strings"
	"testing"

	"github.com/specialistvlad/intellisat/internal/app"
	"github.com/specialistvlad/intellisat/internal/testutil"
)

// Test for: invalid hcl is rejected
func TestErrorHandling_InvalidHCL_IsRejected(t *testing.T) {
	// --- Arrange ---
	// Define an HCL string with a clear syntax error (a missing closing brace).
	invalidHCL := `
		scheduler {
			repoll_limit = 3
		// Missing closing brace here
	`

	// --- Act ---
	// The failure should happen while loading, before the kernel is built.
	result := testutil.RunApp(context.Background(), t, map[string]string{"main.hcl": invalidHCL}, app.Config{})

	// --- Assert ---
	if result.Err == nil {
		t.Fatal("the app should have been rejected for invalid HCL, but no error was returned")
	}
	if result.App != nil {
		t.Fatal("no app should be built from invalid HCL")
	}

	// Check for keywords that indicate a parsing or decoding error, which
	// confirms the failure happened at the expected stage.
	errMsg := result.Err.Error()
	if !strings.Contains(errMsg, "failed to parse") && !strings.Contains(errMsg, "failed to decode") {
		t.Errorf("expected error message to indicate an HCL parsing failure, but got: %s", errMsg)
	}
}

// Test for: a task block naming a duty the flight table does not have
func TestErrorHandling_UnknownTaskLabel_IsRejected(t *testing.T) {
	result := testutil.RunApp(context.Background(), t, map[string]string{
		"tasks.hcl": `task "payload" { probability = 0.5 }`,
	}, app.Config{})

	if result.Err == nil {
		t.Fatal("expected an error for an unknown task label")
	}
	if !strings.Contains(result.Err.Error(), `unknown task "payload"`) {
		t.Errorf("unexpected error: %v", result.Err)
	}
}
