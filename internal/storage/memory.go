package storage

import (
	"context"
	"sync"

	"flapneat/internal/ga"
	"flapneat/internal/logging"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	generations map[string][]logging.GenerationSummary
	champions   map[string][]ga.ChampionFile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.generations = make(map[string][]logging.GenerationSummary)
	s.champions = make(map[string][]ga.ChampionFile)
	return nil
}

// SaveGeneration replaces an earlier summary for the same generation
func (s *MemoryStore) SaveGeneration(_ context.Context, summary logging.GenerationSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	list := s.generations[summary.RunID]
	for i := range list {
		if list[i].Generation == summary.Generation {
			list[i] = summary
			return nil
		}
	}
	s.generations[summary.RunID] = append(list, summary)
	return nil
}

func (s *MemoryStore) Generations(_ context.Context, runID string) ([]logging.GenerationSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	list, ok := s.generations[runID]
	if !ok {
		return nil, false, nil
	}
	out := append([]logging.GenerationSummary(nil), list...)
	sortGenerations(out)
	return out, true, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, champion ga.ChampionFile) error {
	if err := validChampion(champion); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.champions[champion.RunID] = append(s.champions[champion.RunID], champion)
	return nil
}

// LatestChampion returns the champion of the highest generation, the most
// recently saved on ties
func (s *MemoryStore) LatestChampion(_ context.Context, runID string) (ga.ChampionFile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return ga.ChampionFile{}, false, ErrNotInitialized
	}
	list := s.champions[runID]
	if len(list) == 0 {
		return ga.ChampionFile{}, false, nil
	}
	latest := list[0]
	for _, c := range list[1:] {
		if c.Generation >= latest.Generation {
			latest = c
		}
	}
	return latest, true, nil
}
