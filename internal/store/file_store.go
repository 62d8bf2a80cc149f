package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the whole key space as a single JSON document,
// flushed synchronously on every mutation the way local storage is.
// Good enough for a single profile; concurrent processes sharing the
// file get last-writer-wins semantics, same as cross-tab writes.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]json.RawMessage
}

// NewFileStore loads the document at path, creating parent
// directories as needed. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, entries: make(map[string]json.RawMessage)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Get(key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("failed to decode value for key %q: %w", key, err)
	}
	return true, nil
}

func (s *FileStore) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = raw
	return s.flush()
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.flush()
}

// flush writes via a temp file and rename so a crash mid-write never
// truncates the document. Caller holds the lock.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
