// Package comms registers the communications duty.
package comms

import (
	"github.com/specialistvlad/intellisat/internal/duty"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/task"
)

// Defaults are the peripherals and battery load of the communications duty.
var Defaults = duty.Params{
	Peripherals: []string{"transceiver", "antenna"},
	Load:        2,
}

// Module implements the registry.Module interface for this package.
type Module struct {
	Env    duty.Env
	Params duty.Params
}

// Register registers the duty with the task table.
func (m *Module) Register(r *registry.Registry) {
	duty.Register(r, task.Comms, m.Env, m.Params, Defaults)
}
