package session

import (
	"context"
	"maps"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewMemoryStore creates a memory store whose sessions expire after ttl of
// inactivity. A ttl of zero keeps sessions until destroyed.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{c: gocache.New(ttl, time.Minute)}
}

func (s *MemoryStore) load(id string) (map[string]string, bool) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]string)
	return m, ok
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.load(id)
	if !ok {
		return "", false, nil
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.load(id)
	if !ok {
		return ErrNotFound
	}
	// copy on write so readers never observe a map being mutated
	next := maps.Clone(m)
	next[key] = value
	s.c.Set(id, next, gocache.DefaultExpiration)
	return nil
}

// Destroy implements Store.
func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.c.Delete(id)
	return nil
}

// IsActive implements Store.
func (s *MemoryStore) IsActive(_ context.Context, id string) (bool, error) {
	_, ok := s.c.Get(id)
	return ok, nil
}

// Activate implements Store.
func (s *MemoryStore) Activate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.load(id)
	if !ok {
		m = map[string]string{}
	}
	s.c.Set(id, m, gocache.DefaultExpiration)
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}
