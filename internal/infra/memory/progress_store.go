package memory

import (
	"context"
	"sort"
	"sync"
)

// ProgressStore keeps syllabus checklist and reading-tracker state in memory.
type ProgressStore struct {
	mu       sync.RWMutex
	syllabus map[string]bool
	books    map[string]string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		syllabus: make(map[string]bool),
		books:    make(map[string]string),
	}
}

func (s *ProgressStore) ToggleSyllabusItem(_ context.Context, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syllabus[itemID] {
		delete(s.syllabus, itemID)
		return false, nil
	}
	s.syllabus[itemID] = true
	return true, nil
}

func (s *ProgressStore) SyllabusItems(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.syllabus))
	for itemID := range s.syllabus {
		out = append(out, itemID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *ProgressStore) SetBookStatus(_ context.Context, bookID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[bookID] = status
	return nil
}

func (s *ProgressStore) BookStatuses(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.books))
	for k, v := range s.books {
		out[k] = v
	}
	return out, nil
}
