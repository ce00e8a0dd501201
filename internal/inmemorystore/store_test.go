package inmemorystore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBeforeSave(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, bootstore.ErrNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()
	want := bootstore.State{Started: true, RebootCount: 4, UpdatedAt: 1700000000000}

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, s.Saves())
}

func TestInjectedFaults(t *testing.T) {
	s := NewWithState(bootstore.State{RebootCount: 1})
	ctx := context.Background()
	errFlash := errors.New("flash read error")

	s.FailLoad(errFlash)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, errFlash)

	s.FailLoad(nil)
	s.FailSave(errFlash)
	assert.ErrorIs(t, s.Save(ctx, bootstore.State{}), errFlash)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RebootCount, "failed save leaves the old state")
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Save(ctx, bootstore.State{RebootCount: i})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Load(ctx)
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.Saves())
}

var _ bootstore.Store = (*Store)(nil)
