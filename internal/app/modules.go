package app

import (
	"fmt"

	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/duty"
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/workload"
	"github.com/specialistvlad/intellisat/modules/charging"
	"github.com/specialistvlad/intellisat/modules/comms"
	"github.com/specialistvlad/intellisat/modules/detumble"
	"github.com/specialistvlad/intellisat/modules/ecc"
	"github.com/specialistvlad/intellisat/modules/hdd"
	"github.com/specialistvlad/intellisat/modules/mrw"
)

// flightModules is the definitive task table compiled into the flight
// binary, in priority order. The power duty comes first and is due when
// the power policy says so.
func flightModules(env duty.Env, m *config.Model, powerDue task.Predicate) ([]registry.Module, error) {
	params := make(map[task.ID]duty.Params, task.Count)
	for _, id := range task.IDs() {
		p, err := taskParams(env, m.Tasks[id])
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", id, err)
		}
		params[id] = p
	}
	if params[task.Charging].Ready == nil && m.Tasks[task.Charging].Probability == nil {
		p := params[task.Charging]
		p.Ready = powerDue
		params[task.Charging] = p
	}

	return []registry.Module{
		&charging.Module{Env: env, Params: params[task.Charging]},
		&detumble.Module{Env: env, Params: params[task.Detumble]},
		&comms.Module{Env: env, Params: params[task.Comms]},
		&hdd.Module{Env: env, Params: params[task.HDD]},
		&mrw.Module{Env: env, Params: params[task.MRW]},
		&ecc.Module{Env: env, Params: params[task.ECC]},
	}, nil
}

// taskParams turns a task block into duty parameters. Zero fields keep the
// module defaults.
func taskParams(env duty.Env, t config.Task) (duty.Params, error) {
	p := duty.Params{Probability: t.Probability, Load: t.Load}
	if t.RunMin != 0 || t.RunMax != 0 || t.Quantum != 0 {
		prof := workload.DefaultProfile
		if t.RunMin != 0 {
			prof.Min = t.RunMin
		}
		if t.RunMax != 0 {
			prof.Max = t.RunMax
		}
		if t.Quantum != 0 {
			prof.Quantum = t.Quantum
		}
		p.Profile = prof
	}
	if t.Ready != "" {
		expr, err := readiness.NewExpression(t.Ready, env.Battery.Vars)
		if err != nil {
			return p, err
		}
		p.Ready = expr
	}
	return p, nil
}

// powerPolicy builds the power-critical condition. The same condition makes
// the power duty due at arbitration and forces it from the tick handler.
// A random policy gets one stream per caller so each stays reproducible.
func powerPolicy(m *config.Model, env duty.Env) (due, urgent task.Predicate, err error) {
	switch m.Power.Policy {
	case config.PolicyExpression:
		expr, err := readiness.NewExpression(m.Power.Critical, env.Battery.Vars)
		if err != nil {
			return nil, nil, fmt.Errorf("power policy: %w", err)
		}
		return expr, expr, nil
	default:
		return readiness.NewBernoulli(m.Power.Probability, env.Seed),
			readiness.NewBernoulli(m.Power.Probability, env.Seed+1), nil
	}
}
