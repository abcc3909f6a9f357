package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

// memoryStore keeps content records in process memory. Used when persistence
// is disabled and as the default backend in tests.
type memoryStore struct {
	mu              sync.RWMutex
	records         map[string]domain.ContentRecord
	freshnessWindow time.Duration
	now             func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		records:         make(map[string]domain.ContentRecord),
		freshnessWindow: opts.FreshnessWindow,
		now:             time.Now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) GetContentState(id string) (*domain.ContentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memoryStore) IsNewContent(publishedAt time.Time) bool {
	if publishedAt.IsZero() {
		return true
	}
	age := m.now().Sub(publishedAt)
	return age <= m.freshnessWindow
}

func (m *memoryStore) AddContent(id string, rec domain.ContentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[id]; exists {
		return fmt.Errorf("content %q already exists", id)
	}
	m.records[id] = rec
	return nil
}

func (m *memoryStore) UpdateContentState(id, source string, lastUpdated time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("content %q not found", id)
	}
	rec.Source = source
	rec.LastUpdated = lastUpdated
	m.records[id] = rec
	return nil
}

func (m *memoryStore) MarkAsAnnounced(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("content %q not found", id)
	}
	rec.Announced = true
	m.records[id] = rec
	return nil
}
