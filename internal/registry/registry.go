package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/intellisat/internal/task"
)

var (
	// ErrEmptyTable is returned when no module registered a task.
	ErrEmptyTable = errors.New("task table is empty")
	// ErrDuplicateTask is returned when two descriptors share an id.
	ErrDuplicateTask = errors.New("duplicate task id")
	// ErrUnknownTask is returned for an id outside the known duty set.
	ErrUnknownTask = errors.New("unknown task id")
	// ErrPowerNotFirst is returned when the charging duty is not the
	// highest-priority entry.
	ErrPowerNotFirst = errors.New("power duty must be declared first")
	// ErrIncompleteTask is returned for a descriptor without a duty or
	// readiness predicate.
	ErrIncompleteTask = errors.New("task descriptor is incomplete")
	// ErrMissingTask is returned when a known duty has no descriptor.
	ErrMissingTask = errors.New("task not registered")
)

// Module is the interface that every duty module implements to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry is the ordered, immutable task table.
type Registry struct {
	ordered []task.Descriptor
	byID    [task.Count]int // index+1 into ordered, 0 when absent
	frozen  bool
}

// New registers every module in order, validates the resulting table and
// freezes it.
func New(modules ...Module) (*Registry, error) {
	r := &Registry{}
	for _, m := range modules {
		m.Register(r)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	r.frozen = true
	return r, nil
}

// RegisterTask appends a descriptor. Declaration order is priority order.
// It panics once the registry has been frozen.
func (r *Registry) RegisterTask(d task.Descriptor) {
	if r.frozen {
		panic(fmt.Sprintf("registry: task %s registered after initialization", d.ID))
	}
	r.ordered = append(r.ordered, d)
}

func (r *Registry) validate() error {
	if len(r.ordered) == 0 {
		return ErrEmptyTable
	}

	var problems []error
	for i, d := range r.ordered {
		if !d.ID.Valid() {
			problems = append(problems, fmt.Errorf("%w: %s", ErrUnknownTask, d.ID))
			continue
		}
		if r.byID[d.ID] != 0 {
			problems = append(problems, fmt.Errorf("%w: %s", ErrDuplicateTask, d.ID))
			continue
		}
		if d.Duty == nil || d.Ready == nil {
			problems = append(problems, fmt.Errorf("%w: %s", ErrIncompleteTask, d.ID))
		}
		r.byID[d.ID] = i + 1
	}
	for _, id := range task.IDs() {
		if r.byID[id] == 0 {
			problems = append(problems, fmt.Errorf("%w: %s", ErrMissingTask, id))
		}
	}
	if first := r.ordered[0].ID; first != task.Charging {
		problems = append(problems, fmt.Errorf("%w: got %s", ErrPowerNotFirst, first))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidationError lists every structural problem found in the table.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.Error()
	}
	return fmt.Sprintf("registry validation failed:\n- %s", strings.Join(lines, "\n- "))
}

// Unwrap exposes every problem to errors.Is.
func (e *ValidationError) Unwrap() []error { return e.Problems }

// Lookup returns the descriptor for id. It only reports false for ids
// outside the known duty set.
func (r *Registry) Lookup(id task.ID) (task.Descriptor, bool) {
	if !id.Valid() || r.byID[id] == 0 {
		return task.Descriptor{}, false
	}
	return r.ordered[r.byID[id]-1], true
}

// MustLookup is Lookup for ids the caller obtained from this registry.
func (r *Registry) MustLookup(id task.ID) task.Descriptor {
	d, ok := r.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("registry: task %s not registered", id))
	}
	return d
}

// All returns the descriptors in priority order.
func (r *Registry) All() []task.Descriptor {
	out := make([]task.Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered duties.
func (r *Registry) Len() int { return len(r.ordered) }

// Power returns the highest-priority descriptor, which validation guarantees
// is the charging duty.
func (r *Registry) Power() task.Descriptor { return r.ordered[0] }
