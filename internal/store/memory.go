package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps reports in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

type memoryItem struct {
	batch     StoredBatch
	expiresAt time.Time
}

var _ ReportStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. ttl <= 0 uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put implements ReportStore. Expired entries are swept on every write.
func (s *MemoryStore) Put(ctx context.Context, b *StoredBatch) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, id)
		}
	}
	s.items[b.ID] = memoryItem{batch: *b, expiresAt: now.Add(s.ttl)}
	return nil
}

// Get implements ReportStore.
func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredBatch, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()

	if !ok || s.now().After(item.expiresAt) {
		return nil, nil
	}
	b := item.batch
	return &b, nil
}
