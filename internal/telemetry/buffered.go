package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
)

// Buffered decouples a slow sink (network streams) from the kernel. Emit
// never blocks; when the queue is full the event is dropped and counted.
type Buffered struct {
	inner   Sink
	queue   chan Event
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

// NewBuffered starts a forwarding goroutine that delivers queued events to
// inner using ctx for logging. Close stops it after draining the queue.
func NewBuffered(ctx context.Context, inner Sink, size int) *Buffered {
	if size <= 0 {
		size = 256
	}
	b := &Buffered{inner: inner, queue: make(chan Event, size)}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range b.queue {
			b.inner.Emit(ctx, ev)
		}
	}()
	return b
}

// Emit implements Sink.
func (b *Buffered) Emit(_ context.Context, ev Event) {
	select {
	case b.queue <- ev:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (b *Buffered) Dropped() uint64 { return b.dropped.Load() }

// Close drains the queue and waits for the forwarder. Emit must not be
// called after Close.
func (b *Buffered) Close() error {
	b.once.Do(func() { close(b.queue) })
	b.wg.Wait()
	return nil
}
