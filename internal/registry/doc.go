// Package registry provides the fixed task table of the kernel.
//
// Modules (one per subsystem duty) register their descriptors in priority
// order. Once New returns, the table is validated and frozen: lookups are
// lock-free and the order never changes for the lifetime of the process.
// Structural problems, such as an empty table or a power duty that is not
// declared first, are reported at construction rather than at the first
// arbitration.
package registry
