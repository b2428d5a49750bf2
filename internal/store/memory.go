package store

import (
	"context"
	"sync"

	"github.com/i474232898/forecast-collector/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory dataset store. It backs dry
// runs and tests.
type MemoryStore struct {
	mu sync.RWMutex

	// key: region code, value: dataset
	data map[string][]weather.Entry
	// number of Save calls per region
	saves map[string]int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]weather.Entry),
		saves: make(map[string]int),
	}
}

// Load returns a copy of the dataset for region.
func (s *MemoryStore) Load(_ context.Context, region string) ([]weather.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.data[region]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]weather.Entry(nil), entries...), nil
}

// Save replaces the dataset for region with a copy of entries.
func (s *MemoryStore) Save(_ context.Context, region string, entries []weather.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[region] = append([]weather.Entry(nil), entries...)
	s.saves[region]++
	return nil
}

// Saves reports how many times the dataset for region was written.
func (s *MemoryStore) Saves(region string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[region]
}
