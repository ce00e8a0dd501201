// Package duty implements the simulated subsystem duty shared by every
// module: configure claims the duty's peripherals, run spends a random
// amount of wall-clock time in cancellable steps while loading the battery,
// and cleanup releases the peripherals again.
package duty

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/peripheral"
	"github.com/specialistvlad/intellisat/internal/power"
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/workload"
)

// DefaultProbability is the reference chance that a non-power duty is due
// at any arbitration.
const DefaultProbability = 0.25

// Env is what the composition root shares with every duty.
type Env struct {
	Bus     *peripheral.Bus
	Battery *power.Battery
	Seed    uint64
}

// Params tunes one duty.
type Params struct {
	// Ready overrides the Bernoulli predicate built from Probability.
	Ready task.Predicate
	// Probability is nil for DefaultProbability. Zero means never due.
	Probability *float64
	Profile     workload.Profile
	Peripherals []string
	// Load scales how fast the run phase drains the battery. Charging
	// duties refill it instead.
	Load    float64
	Charges bool
}

// Simulated is the configure/run/cleanup triad of one subsystem.
type Simulated struct {
	id          task.ID
	bus         *peripheral.Bus
	battery     *power.Battery
	peripherals []string
	profile     workload.Profile
	load        float64
	charges     bool
	rng         *rand.Rand
}

// New builds the duty for id.
func New(id task.ID, env Env, p Params) *Simulated {
	if p.Profile == (workload.Profile{}) {
		p.Profile = workload.DefaultProfile
	}
	if p.Load == 0 {
		p.Load = 1
	}
	return &Simulated{
		id:          id,
		bus:         env.Bus,
		battery:     env.Battery,
		peripherals: p.Peripherals,
		profile:     p.Profile,
		load:        p.Load,
		charges:     p.Charges,
		rng:         rand.New(rand.NewPCG(env.Seed, uint64(id)+1)),
	}
}

// Configure claims every peripheral the duty needs. Claims it already holds
// are left as they are, so configuring twice changes nothing. A failed
// claim rolls back the claims made by this call.
func (s *Simulated) Configure(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}
	var claimed []string
	for _, name := range s.peripherals {
		if holder, held := s.bus.Holder(name); held && holder == s.id {
			continue
		}
		if err := s.bus.Claim(name, s.id); err != nil {
			for _, c := range claimed {
				_ = s.bus.Release(c, s.id)
			}
			return fmt.Errorf("claim %s: %w", name, err)
		}
		claimed = append(claimed, name)
	}
	ctxlog.FromContext(ctx).Debug("Peripherals claimed.", "peripherals", s.peripherals)
	return nil
}

// Run works for a random duration drawn from the profile, one quantum at a
// time. Every quantum boundary is a preemption point.
func (s *Simulated) Run(ctx context.Context) error {
	d := s.profile.Pick(s.rng)
	ctxlog.FromContext(ctx).Debug("Working.", "duration", d)
	return workload.Steps(ctx, d, s.profile.Quantum, s.step)
}

func (s *Simulated) step(d time.Duration) {
	if s.battery == nil {
		return
	}
	if s.charges {
		s.battery.Charge(d)
		return
	}
	s.battery.Drain(time.Duration(float64(d) * s.load))
}

// Cleanup releases every peripheral the duty still holds.
func (s *Simulated) Cleanup(ctx context.Context, res task.RunResult) error {
	if res.Aborted {
		ctxlog.FromContext(ctx).Debug("Cleaning up after abort.", "cause", res.Cause)
	}
	if s.bus == nil {
		return nil
	}
	var errs []error
	for _, name := range s.peripherals {
		if holder, held := s.bus.Holder(name); !held || holder != s.id {
			continue
		}
		if err := s.bus.Release(name, s.id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Descriptor returns the task table row for id. Without an explicit Ready
// predicate the duty is due with p.Probability, or DefaultProbability when
// that is unset.
func Descriptor(id task.ID, env Env, p Params) task.Descriptor {
	ready := p.Ready
	if ready == nil {
		prob := DefaultProbability
		if p.Probability != nil {
			prob = *p.Probability
		}
		ready = readiness.NewBernoulli(prob, env.Seed^(uint64(id)<<32))
	}
	return task.Descriptor{ID: id, Ready: ready, Duty: New(id, env, p)}
}

// Register adds the duty for id to r with defaults filled in from def.
func Register(r *registry.Registry, id task.ID, env Env, p, def Params) {
	if len(p.Peripherals) == 0 {
		p.Peripherals = def.Peripherals
	}
	if p.Load == 0 {
		p.Load = def.Load
	}
	p.Charges = p.Charges || def.Charges
	r.RegisterTask(Descriptor(id, env, p))
}
