// Package ecc registers the error-correction duty.
package ecc

import (
	"github.com/specialistvlad/intellisat/internal/duty"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/task"
)

// Defaults are the peripherals and battery load of the error-correction duty.
var Defaults = duty.Params{
	Peripherals: []string{"dma"},
	Load:        0.5,
}

// Module implements the registry.Module interface for this package.
type Module struct {
	Env    duty.Env
	Params duty.Params
}

// Register registers the duty with the task table.
func (m *Module) Register(r *registry.Registry) {
	duty.Register(r, task.ECC, m.Env, m.Params, Defaults)
}
