// Package inmemory keeps run state in a mutex-guarded map. It is the default
// store when no redis is configured; runs vanish on restart.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yashsmehta/auto-apply/internal/state"
	"github.com/yashsmehta/auto-apply/models"
)

type Store struct {
	mu   sync.RWMutex
	runs map[string]state.Run
}

func New() *Store {
	return &Store{runs: make(map[string]state.Run)}
}

func (s *Store) Create(ctx context.Context, appName string) (state.Run, error) {
	now := time.Now()
	run := state.Run{
		ID:        uuid.NewString(),
		AppName:   appName,
		Status:    state.StatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	return run, nil
}

func (s *Store) Get(ctx context.Context, id string) (state.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return state.Run{}, models.ErrRunNotFound
	}
	return run, nil
}

func (s *Store) Update(ctx context.Context, id string, fn func(*state.Run)) (state.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return state.Run{}, models.ErrRunNotFound
	}
	fn(&run)
	run.UpdatedAt = time.Now()
	s.runs[id] = run
	return run, nil
}

// List returns all runs, most recently started first.
func (s *Store) List(ctx context.Context) ([]state.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]state.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}
