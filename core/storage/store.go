// Package storage defines the durable key-value contract shared by the
// action queue and the response cache. Implementations are assumed to
// survive process restarts but are not transactional.
package storage

import (
	"strings"
	"sync"
)

// Store is a durable key-value store. Load returns (nil, nil) for a
// missing key.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
	// Keys lists the stored keys with the given prefix.
	Keys(prefix string) ([]string, error)
}

// MemoryStore keeps everything in process memory. Used in tests and as a
// degraded fallback when no durable backend is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(d))
	copy(cp, d)
	return cp, nil
}

func (s *MemoryStore) Save(key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
