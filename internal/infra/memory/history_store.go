package memory

import (
	"context"
	"sync"

	"fuvest-study-service/internal/domain"
)

// HistoryStore is an in-memory implementation of app.HistoryRepository.
// Results are append-only; List returns newest first.
type HistoryStore struct {
	mu      sync.RWMutex
	results []domain.Result
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *HistoryStore) List(_ context.Context) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0, len(s.results))
	for i := len(s.results) - 1; i >= 0; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}

func (s *HistoryStore) Delete(_ context.Context, resultID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.results {
		if s.results[i].ID == resultID {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return nil
		}
	}
	return domain.ErrResultNotFound
}
