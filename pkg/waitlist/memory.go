package waitlist

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	entries map[string]*Entry
	emails  map[string]string
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		emails:  make(map[string]string),
	}
}

// Add stores a copy of e.
func (s *MemoryStore) Add(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(e.Email)
	if _, ok := s.emails[key]; ok {
		return ErrDuplicateEmail
	}

	entryCopy := *e
	s.entries[e.ID] = &entryCopy
	s.emails[key] = e.ID
	return nil
}

// Get returns a copy of the entry with id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	entryCopy := *e
	return &entryCopy, nil
}

// List returns copies of matching entries, newest first.
func (s *MemoryStore) List(ctx context.Context, q ListQuery) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if q.matches(e) {
			entryCopy := *e
			results = append(results, &entryCopy)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close releases nothing.
func (s *MemoryStore) Close() error { return nil }
