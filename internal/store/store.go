package store

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Store is the string-keyed JSON persistence contract every manager
// is built on. It is the backend-neutral stand-in for browser local
// storage: synchronous, last-writer-wins per key, no transaction
// spanning multiple keys.
//
// Get unmarshals the stored value into dest and reports whether the
// key existed. Set overwrites. Remove is a no-op for absent keys.
// Implementations must be safe for concurrent use from handlers.
type Store interface {
	Get(key string, dest interface{}) (bool, error)
	Set(key string, value interface{}) error
	Remove(key string) error
}

// MemoryStore keeps values in process memory only. It backs tests and
// is the substitute stores are injected as, so nothing in the service
// layer reaches for a hidden global.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Get(key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("failed to decode value for key %q: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	s.mu.Lock()
	s.entries[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
