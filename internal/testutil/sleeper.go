package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/intellisat/internal/status"
	"github.com/specialistvlad/intellisat/internal/task"
	"github.com/specialistvlad/intellisat/internal/workload"
)

// SleeperDuty is a shared duty for kernel tests. Its run phase sleeps for a
// fixed duration, honouring cancellation, and every activation is recorded.
type SleeperDuty struct {
	ID    task.ID
	Flags *status.Flags
	Sleep time.Duration
	// Running, when set, receives the duty's id each time a run phase
	// starts. Sends never block.
	Running chan<- task.ID

	mu      sync.Mutex
	records []*ExecutionRecord
}

// NewSleeperDuty creates a sleeper for id.
func NewSleeperDuty(id task.ID, flags *status.Flags, sleep time.Duration) *SleeperDuty {
	return &SleeperDuty{ID: id, Flags: flags, Sleep: sleep}
}

// Configure opens a new activation record.
func (d *SleeperDuty) Configure(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, &ExecutionRecord{})
	return nil
}

func (d *SleeperDuty) Run(ctx context.Context) error {
	d.mu.Lock()
	rec := d.records[len(d.records)-1]
	rec.Start = time.Now()
	d.mu.Unlock()

	if d.Running != nil {
		select {
		case d.Running <- d.ID:
		default:
		}
	}
	err := workload.Sleep(ctx, d.Sleep)

	d.mu.Lock()
	rec.End = time.Now()
	d.mu.Unlock()
	return err
}

func (d *SleeperDuty) Cleanup(_ context.Context, res task.RunResult) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.records[len(d.records)-1]
	rec.Aborted = res.Aborted
	rec.Cause = res.Cause
	rec.CleanedUp = true
	if d.Flags != nil {
		rec.ModeBitAtCleanup = d.Flags.Test(status.ModeGroup, uint(d.ID))
	}
	return nil
}

// Records returns a copy of every activation record.
func (d *SleeperDuty) Records() []ExecutionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ExecutionRecord, len(d.records))
	for i, r := range d.records {
		out[i] = *r
	}
	return out
}
