// Package bootstore defines where the kernel keeps the state that must
// survive a reboot: whether the post-deployment quiet period has completed
// and how many times the computer has booted.
//
// # Why Boot Store Exists
//
// The boot sequence runs once per power cycle and must behave differently
// on the very first boot after deployment. That decision needs state that
// outlives the process, so it sits behind an interface with one
// implementation per medium:
//   - internal/inmemorystore for tests and throwaway simulation runs
//   - internal/filestore for the flight build's non-volatile file
//   - internal/dynamostore for ground-side simulation fleets
//
// A store never decides anything. Reading nothing back is reported as
// ErrNotFound and the boot sequence treats it as a first boot.
package bootstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("boot state not found")

// State is the persisted boot record.
type State struct {
	// Started is true once the post-deployment quiet period has completed.
	Started     bool  `dynamodbav:"started" json:"started"`
	RebootCount int   `dynamodbav:"reboot_count" json:"reboot_count"`
	UpdatedAt   int64 `dynamodbav:"updated_at" json:"updated_at"`
}

// Store loads and saves the boot record.
//
// Implementations MUST be safe for concurrent use: the status endpoint may
// read while the boot sequence writes.
type Store interface {
	// Load returns the last saved state, or ErrNotFound.
	Load(ctx context.Context) (State, error)
	// Save replaces the stored state.
	Save(ctx context.Context, s State) error
}
