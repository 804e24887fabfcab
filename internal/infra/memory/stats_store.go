package memory

import (
	"context"
	"sort"
	"sync"

	"fuvest-study-service/internal/domain"
)

// StatsStore keeps per-year answer counters in memory.
type StatsStore struct {
	mu    sync.RWMutex
	stats map[int]domain.YearStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{stats: make(map[int]domain.YearStats)}
}

func (s *StatsStore) Record(_ context.Context, year int, correct bool) (domain.YearStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.stats[year]
	entry.Year = year
	entry.Answered++
	if correct {
		entry.Correct++
	} else {
		entry.Wrong++
	}
	s.stats[year] = entry
	return entry, nil
}

func (s *StatsStore) Get(_ context.Context, year int) (domain.YearStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.stats[year]
	entry.Year = year
	return entry, nil
}

func (s *StatsStore) All(_ context.Context) ([]domain.YearStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.YearStats, 0, len(s.stats))
	for _, entry := range s.stats {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}
