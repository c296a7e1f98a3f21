package storage

import (
	"context"
	"sort"
	"sync"

	"morphogen/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	best        map[string]model.BestMemberRecord
	history     map[string][]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.best = make(map[string]model.BestMemberRecord)
	s.history = make(map[string][]int)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *MemoryStore) SaveBestMember(_ context.Context, best model.BestMemberRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.best[best.RunID] = best
	return nil
}

func (s *MemoryStore) GetBestMember(_ context.Context, runID string) (model.BestMemberRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := s.best[runID]
	return best, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]int, len(history))
	copy(owned, history)
	s.history[runID] = owned
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	out := make([]int, len(history))
	copy(out, history)
	return out, true, nil
}
