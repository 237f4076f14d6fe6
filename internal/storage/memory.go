package storage

import (
	"context"
	"sort"
	"sync"

	"skbengine/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]model.PopulationSnapshot
	history   map[string][]float64
	stats     map[string][]model.GenerationStats
	triples   map[string][]model.StableTriple
	runs      map[string]model.RunSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = make(map[string]model.PopulationSnapshot)
	s.history = make(map[string][]float64)
	s.stats = make(map[string][]model.GenerationStats)
	s.triples = make(map[string][]model.StableTriple)
	s.runs = make(map[string]model.RunSummary)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.PopulationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Individuals = append([]model.Individual(nil), snapshot.Individuals...)
	snapshot.Frozen = append([]int(nil), snapshot.Frozen...)
	s.snapshots[snapshot.ID] = snapshot
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (model.PopulationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[id]
	if !ok {
		return model.PopulationSnapshot{}, false, nil
	}
	snapshot.Individuals = append([]model.Individual(nil), snapshot.Individuals...)
	snapshot.Frozen = append([]int(nil), snapshot.Frozen...)
	return snapshot, true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenerationStats(_ context.Context, runID string, stats []model.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationStats, len(stats))
	copy(copied, stats)
	s.stats[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]model.GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.stats[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationStats, len(stats))
	copy(copied, stats)
	return copied, true, nil
}

func (s *MemoryStore) SaveTriples(_ context.Context, runID string, triples []model.StableTriple) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.StableTriple, len(triples))
	copy(copied, triples)
	s.triples[runID] = copied
	return nil
}

func (s *MemoryStore) GetTriples(_ context.Context, runID string) ([]model.StableTriple, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	triples, ok := s.triples[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.StableTriple, len(triples))
	copy(copied, triples)
	return copied, true, nil
}

func (s *MemoryStore) SaveRunSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[summary.RunID] = summary
	return nil
}

func (s *MemoryStore) GetRunSummary(_ context.Context, runID string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.runs[runID]
	return summary, ok, nil
}

func (s *MemoryStore) ListRunSummaries(_ context.Context) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunSummary, 0, len(s.runs))
	for _, summary := range s.runs {
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC < out[j].CreatedAtUTC
		}
		return out[i].RunID < out[j].RunID
	})
	return out, nil
}
