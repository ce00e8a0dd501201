// Package readiness provides the pluggable "is this duty due?" policies used
// by the arbiter and the tick handler.
//
// Policies are evaluated fresh on every call and never queue outcomes: a
// duty that was due on one tick and not selected is simply re-tested later.
package readiness

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/intellisat/internal/task"
)

// Func adapts an ordinary function to task.Predicate.
type Func func(ctx context.Context) (bool, error)

// Due implements task.Predicate.
func (f Func) Due(ctx context.Context) (bool, error) { return f(ctx) }

// Constant is a predicate with a fixed answer.
type Constant bool

// Due implements task.Predicate.
func (c Constant) Due(context.Context) (bool, error) { return bool(c), nil }

// Always and Never are the two constant predicates.
var (
	Always task.Predicate = Constant(true)
	Never  task.Predicate = Constant(false)
)

// Bernoulli is due with a fixed probability on every evaluation.
// It is safe for use from the dispatch loop and the tick handler at once.
type Bernoulli struct {
	p   float64
	mu  sync.Mutex
	rng *rand.Rand
}

// NewBernoulli returns a predicate that is due with probability p, drawing
// from a PCG stream seeded with seed.
func NewBernoulli(p float64, seed uint64) *Bernoulli {
	return &Bernoulli{p: p, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// OneIn returns a predicate that is due once in n evaluations on average,
// matching a "rand() % n == 0" duty test.
func OneIn(n int, seed uint64) *Bernoulli {
	if n <= 0 {
		n = 1
	}
	return NewBernoulli(1/float64(n), seed)
}

// Probability returns p.
func (b *Bernoulli) Probability() float64 { return b.p }

// Due implements task.Predicate.
func (b *Bernoulli) Due(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64() < b.p, nil
}

// Switch is a predicate whose answer is flipped from outside, for operator
// overrides and for forcing conditions in simulation.
type Switch struct {
	on atomic.Bool
}

// NewSwitch returns a switch in the given position.
func NewSwitch(on bool) *Switch {
	s := &Switch{}
	s.on.Store(on)
	return s
}

// Set moves the switch.
func (s *Switch) Set(on bool) { s.on.Store(on) }

// Due implements task.Predicate.
func (s *Switch) Due(context.Context) (bool, error) { return s.on.Load(), nil }

// Script replays a fixed sequence of answers, one per evaluation, then keeps
// answering with Tail.
type Script struct {
	mu    sync.Mutex
	steps []bool
	next  int
	Tail  bool
}

// NewScript returns a script over steps.
func NewScript(steps ...bool) *Script {
	return &Script{steps: steps}
}

// Due implements task.Predicate.
func (s *Script) Due(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.steps) {
		return s.Tail, nil
	}
	v := s.steps[s.next]
	s.next++
	return v, nil
}

// Evaluate runs p and converts every failure, including a panic, into
// "not due" plus an error describing it. A nil predicate is never due.
func Evaluate(ctx context.Context, p task.Predicate) (due bool, err error) {
	if p == nil {
		return false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			due = false
			err = fmt.Errorf("readiness predicate panicked: %v", r)
		}
	}()
	due, err = p.Due(ctx)
	if err != nil {
		return false, err
	}
	return due, nil
}
