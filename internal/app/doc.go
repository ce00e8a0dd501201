// Package app contains the composition root of the flight computer. It
// loads the configuration, builds the flight task table, the boot store and
// the telemetry sinks, and runs the boot sequence followed by the kernel,
// decoupled from any specific entrypoint like a CLI.
package app
