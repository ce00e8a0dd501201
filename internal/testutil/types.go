package testutil

import "time"

// ExecutionRecord holds what happened to one activation of a test duty.
type ExecutionRecord struct {
	Start   time.Time
	End     time.Time
	Aborted bool
	Cause   error
	// ModeBitAtCleanup is whether the duty's mode bit was still set when
	// its cleanup ran.
	ModeBitAtCleanup bool
	CleanedUp        bool
}
