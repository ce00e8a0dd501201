// Package peripheral keeps the ledger of hardware the duties claim during
// configure and release during cleanup. A claim that outlives its duty's
// activation is a leak, which is exactly what skipping cleanup on abort
// produces.
package peripheral

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/specialistvlad/intellisat/internal/task"
)

var (
	// ErrBusy is returned when another duty holds the peripheral.
	ErrBusy = errors.New("peripheral busy")
	// ErrNotResponding is returned for a peripheral marked as faulted.
	ErrNotResponding = errors.New("peripheral not responding")
	// ErrNotHeld is returned when releasing a claim the caller does not own.
	ErrNotHeld = errors.New("peripheral not held")
)

// Bus is the claim ledger. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.Mutex
	claims map[string]task.ID
	faults map[string]error
}

// NewBus returns an empty ledger.
func NewBus() *Bus {
	return &Bus{claims: make(map[string]task.ID), faults: make(map[string]error)}
}

// Claim grants name to owner. Claiming a peripheral the owner already holds
// succeeds without change.
func (b *Bus) Claim(name string, owner task.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.faults[name]; ok {
		return fmt.Errorf("%w: %s: %w", ErrNotResponding, name, err)
	}
	if holder, ok := b.claims[name]; ok {
		if holder == owner {
			return nil
		}
		return fmt.Errorf("%w: %s held by %s", ErrBusy, name, holder)
	}
	b.claims[name] = owner
	return nil
}

// Release returns name to the bus.
func (b *Bus) Release(name string, owner task.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if holder, ok := b.claims[name]; !ok || holder != owner {
		return fmt.Errorf("%w: %s by %s", ErrNotHeld, name, owner)
	}
	delete(b.claims, name)
	return nil
}

// Holder reports who holds name.
func (b *Bus) Holder(name string) (task.ID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.claims[name]
	return id, ok
}

// Holdings returns a copy of every outstanding claim.
func (b *Bus) Holdings() map[string]task.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.claims)
}

// Fault marks name as unresponsive; subsequent claims fail with cause.
// A nil cause clears the fault.
func (b *Bus) Fault(name string, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cause == nil {
		delete(b.faults, name)
		return
	}
	b.faults[name] = cause
}
