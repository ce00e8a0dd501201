package ticker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FireIsSynchronous(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	m := NewManual()
	var count atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx, func(context.Context) { count.Add(1) }) }()
	<-m.Started()

	// --- Act ---
	handled := m.FireN(5)

	// --- Assert ---
	assert.Equal(t, 5, handled)
	assert.Equal(t, int32(5), count.Load(), "each Fire returns after the handler ran")

	cancel()
	require.NoError(t, <-done)
	assert.False(t, m.Fire(), "a stopped source reports false")
}

func TestWall_TicksUntilCancelled(t *testing.T) {
	t.Parallel()
	w := NewWall(time.Millisecond)
	var count atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Start(ctx, func(context.Context) { count.Add(1) }))

	assert.Positive(t, count.Load())
}

func TestNewWall_DefaultInterval(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultInterval, NewWall(0).Interval)
}
