// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the bootstore.Store interface.
//
// # When to Use
//
// This implementation is suitable for:
//   - Unit and integration tests
//   - Simulation runs that should always behave like a first boot
//
// Faults can be injected with FailLoad and FailSave to exercise the boot
// sequence's fallback paths.
package inmemorystore
