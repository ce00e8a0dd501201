package executor

import (
	"sync"

	"github.com/specialistvlad/intellisat/internal/task"
)

// TaskStats counts what happened to one duty's activations.
type TaskStats struct {
	Selected        uint64 `json:"selected"`
	Completed       uint64 `json:"completed"`
	Failed          uint64 `json:"failed"`
	Aborted         uint64 `json:"aborted"`
	ConfigureFailed uint64 `json:"configure_failed"`
	CleanupSkipped  uint64 `json:"cleanup_skipped"`
}

type statsTable struct {
	mu   sync.Mutex
	rows [task.Count]TaskStats
}

func (s *statsTable) update(id task.ID, fn func(*TaskStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.rows[id])
}

func (s *statsTable) snapshot() map[task.ID]TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[task.ID]TaskStats, task.Count)
	for i, row := range s.rows {
		if row != (TaskStats{}) {
			out[task.ID(i)] = row
		}
	}
	return out
}
