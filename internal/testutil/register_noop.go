package testutil

import (
	"context"

	"github.com/specialistvlad/intellisat/internal/task"
)

// NoopDuty completes every phase immediately.
type NoopDuty struct{}

func (NoopDuty) Configure(context.Context) error { return nil }
func (NoopDuty) Run(context.Context) error { return nil }
func (NoopDuty) Cleanup(context.Context, task.RunResult) error { return nil }
