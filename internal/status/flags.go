// Package status holds the process-wide flag words shared by the dispatch
// loop and the tick handler.
//
// There are two words: status bits describe the long-lived mission phase and
// mode bits mark the duty that currently owns the processor. Every
// read-modify-write is a single atomic operation, so a tick landing between
// two loop statements can never tear or lose an update.
package status

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// Group selects one of the two flag words.
type Group uint8

const (
	StatusGroup Group = iota
	ModeGroup
)

func (g Group) String() string {
	switch g {
	case StatusGroup:
		return "status"
	case ModeGroup:
		return "mode"
	default:
		return fmt.Sprintf("group(%d)", uint8(g))
	}
}

// Status bit indices.
const (
	// Start is set once the post-deployment quiet period has completed.
	Start uint = iota
	// ModeSwitch is raised by the tick handler when the power duty must be
	// selected at the next arbitration.
	ModeSwitch
)

// Flags is the owned flag state. The zero value is ready to use.
type Flags struct {
	_      [0]func() // prevent accidental copying.
	status atomic.Uint32
	mode   atomic.Uint32
}

// New returns a cleared flag set.
func New() *Flags {
	return &Flags{}
}

func (f *Flags) word(g Group) *atomic.Uint32 {
	switch g {
	case StatusGroup:
		return &f.status
	case ModeGroup:
		return &f.mode
	default:
		panic(fmt.Sprintf("status: unknown group %d", g))
	}
}

func mask(index uint) uint32 {
	if index >= 32 {
		panic(fmt.Sprintf("status: bit index %d out of range", index))
	}
	return 1 << index
}

// Test reports whether the bit is set.
func (f *Flags) Test(g Group, index uint) bool {
	return f.word(g).Load()&mask(index) != 0
}

// Set sets the bit.
func (f *Flags) Set(g Group, index uint) {
	f.word(g).Or(mask(index))
}

// Clear clears the bit.
func (f *Flags) Clear(g Group, index uint) {
	f.word(g).And(^mask(index))
}

// TestAndSet sets the bit and reports whether it was already set.
func (f *Flags) TestAndSet(g Group, index uint) bool {
	m := mask(index)
	return f.word(g).Or(m)&m != 0
}

// TestAndClear clears the bit and reports whether it was set.
func (f *Flags) TestAndClear(g Group, index uint) bool {
	m := mask(index)
	return f.word(g).And(^m)&m != 0
}

// Snapshot returns both words as observed at one instant each.
func (f *Flags) Snapshot() (status, mode uint32) {
	return f.status.Load(), f.mode.Load()
}

// ActiveModes returns how many mode bits are set. Outside the brief
// select-to-configure window it is 0 or 1.
func (f *Flags) ActiveModes() int {
	return bits.OnesCount32(f.mode.Load())
}

// ActiveMode returns the lowest set mode bit.
func (f *Flags) ActiveMode() (uint, bool) {
	m := f.mode.Load()
	if m == 0 {
		return 0, false
	}
	return uint(bits.TrailingZeros32(m)), true
}
