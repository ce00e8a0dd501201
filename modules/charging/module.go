// Package charging registers the power duty. It is always declared first in
// the task table: the arbiter falls back to it when nothing else is due and
// the tick handler forces it when power is critical.
package charging

import (
	"github.com/specialistvlad/intellisat/internal/duty"
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/task"
)

// OneIn is the reference power policy: due once in this many evaluations.
const OneIn = 101

// Defaults are the peripherals of the charging duty.
var Defaults = duty.Params{
	Peripherals: []string{"solar_array", "battery_controller"},
	Charges:     true,
}

// Module implements the registry.Module interface for this package.
type Module struct {
	Env    duty.Env
	Params duty.Params
}

// Register registers the duty with the task table. Without a Ready policy
// the duty is due with the reference probability of one in 101.
func (m *Module) Register(r *registry.Registry) {
	p := m.Params
	if p.Ready == nil && p.Probability == nil {
		p.Ready = readiness.OneIn(OneIn, m.Env.Seed)
	}
	duty.Register(r, task.Charging, m.Env, p, Defaults)
}
