package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/stretchr/testify/require"
)

// AssertDutyRan checks the log output within a HarnessResult to confirm that
// a specific duty completed at least once.
func AssertDutyRan(t *testing.T, result *HarnessResult, id task.ID) {
	t.Helper()

	expected := fmt.Sprintf("task=%s", id)
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Duty completed.") && strings.Contains(line, expected) {
			return
		}
	}
	require.Fail(t, "duty did not complete", "expected a completion log line for %s", id)
}
