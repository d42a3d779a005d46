package memory

import (
	"context"
	"sync"

	"aiornot-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ProgressStore is an in-memory implementation of app.ProgressStore.
type ProgressStore struct {
	mu        sync.RWMutex
	active    map[domain.ProgressKey]domain.GameProgress
	completed []domain.GameProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		active: make(map[domain.ProgressKey]domain.GameProgress),
	}
}

func (s *ProgressStore) FindActive(_ context.Context, key domain.ProgressKey) (domain.GameProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.active[key]
	return rec, ok, nil
}

func (s *ProgressStore) CreateActive(_ context.Context, p domain.GameProgress) (domain.GameProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.Key()
	if existing, ok := s.active[key]; ok {
		return existing, false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsCompleted = false
	s.active[key] = p
	return p, true, nil
}

func (s *ProgressStore) UpdateActive(_ context.Context, key domain.ProgressKey, u domain.ProgressUpdate) (domain.GameProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.active[key]
	if !ok {
		return domain.GameProgress{}, false, nil
	}
	u.Apply(&rec)
	if rec.IsCompleted {
		delete(s.active, key)
		s.completed = append(s.completed, rec)
	} else {
		s.active[key] = rec
	}
	return rec, true, nil
}

func (s *ProgressStore) DeleteActive(_ context.Context, key domain.ProgressKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[key]; !ok {
		return false, nil
	}
	delete(s.active, key)
	return true, nil
}

// Completed returns completed records for a key, oldest first.
func (s *ProgressStore) Completed(key domain.ProgressKey) []domain.GameProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.GameProgress
	for _, rec := range s.completed {
		if rec.Key() == key {
			out = append(out, rec)
		}
	}
	return out
}
