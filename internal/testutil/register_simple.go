package testutil

import (
	"github.com/specialistvlad/intellisat/internal/readiness"
	"github.com/specialistvlad/intellisat/internal/registry"
	"github.com/specialistvlad/intellisat/internal/task"
)

// SimpleModule is a test helper for registering a fixed list of
// descriptors in order.
type SimpleModule struct {
	Descriptors []task.Descriptor
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	for _, d := range m.Descriptors {
		r.RegisterTask(d)
	}
}

// FullTable returns a module declaring all six duties in priority order.
// Duties and predicates missing from the maps become NoopDuty and
// readiness.Never.
func FullTable(duties map[task.ID]task.Duty, preds map[task.ID]task.Predicate) *SimpleModule {
	m := &SimpleModule{}
	for _, id := range task.IDs() {
		d, ok := duties[id]
		if !ok {
			d = NoopDuty{}
		}
		p, ok := preds[id]
		if !ok {
			p = readiness.Never
		}
		m.Descriptors = append(m.Descriptors, task.Descriptor{ID: id, Ready: p, Duty: d})
	}
	return m
}
