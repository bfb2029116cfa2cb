package store

import (
	"context"
	"sync"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// MemoryStore keeps the record list in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Record
	scopes  map[string]*MemoryStore
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.records == nil {
		return []models.Record{}, nil
	}
	return models.CloneRecords(s.records), nil
}

func (s *MemoryStore) Save(ctx context.Context, records []models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = models.CloneRecords(records)
	if s.records == nil {
		s.records = []models.Record{}
	}
	return nil
}

// Scope returns the list stored under key, creating it on first use.
func (s *MemoryStore) Scope(key string) Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scopes == nil {
		s.scopes = map[string]*MemoryStore{}
	}
	scoped, ok := s.scopes[key]
	if !ok {
		scoped = NewMemoryStore()
		s.scopes[key] = scoped
	}
	return scoped
}
