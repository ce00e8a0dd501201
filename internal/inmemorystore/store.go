package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/intellisat/internal/bootstore"
)

// Store is an in-memory implementation of bootstore.Store guarded by a
// single mutex.
type Store struct {
	mu      sync.Mutex
	state   bootstore.State
	saved   bool
	saves   int
	loadErr error
	saveErr error
}

// New creates an empty store. Load reports bootstore.ErrNotFound until the
// first Save.
func New() *Store {
	return &Store{}
}

// NewWithState creates a store that already holds s.
func NewWithState(s bootstore.State) *Store {
	return &Store{state: s, saved: true}
}

// Load implements bootstore.Store.
func (s *Store) Load(context.Context) (bootstore.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return bootstore.State{}, s.loadErr
	}
	if !s.saved {
		return bootstore.State{}, bootstore.ErrNotFound
	}
	return s.state, nil
}

// Save implements bootstore.Store.
func (s *Store) Save(_ context.Context, st bootstore.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.state = st
	s.saved = true
	s.saves++
	return nil
}

// FailLoad makes every Load return err. A nil err clears the fault.
func (s *Store) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailSave makes every Save return err. A nil err clears the fault.
func (s *Store) FailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns how many saves succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
