package store

import (
	"context"
	"sync"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

const defaultMemoryCapacity = 200

// MemoryStore is the fallback when no database is configured, mirroring the
// original client-side localStorage fallback: a bounded, newest-first list
// that lives only for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.GenerationRecord // newest first
	max     int
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = defaultMemoryCapacity
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Create(_ context.Context, rec *model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]model.GenerationRecord{*rec}, s.records...)
	if len(s.records) > s.max {
		s.records = s.records[:s.max]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*model.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, limit int32) ([]model.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int(limit)
	if n <= 0 || n > len(s.records) {
		n = len(s.records)
	}

	out := make([]model.GenerationRecord, n)
	copy(out, s.records[:n])
	return out, nil
}
