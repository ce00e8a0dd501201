// Package config defines the format-agnostic configuration model for the
// kernel, along with the Loader interface for reading it from a source.
//
// The `config.Model` is the single source of truth for the app package when
// it wires the flag set, the flight table, the scheduler and the boot
// sequence. Concrete loaders, such as the HCL one, live in separate
// packages and only ever override the defaults returned by Default.
package config
