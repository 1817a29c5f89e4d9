// Package storage provides durable key-value backends for the action queue
// and the response cache.
package storage

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fraudops/fieldkit/core/faults"
)

// FileStore persists each key as a file under a directory. Writes go
// through a temp file and rename so a crash never leaves a torn value.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, faults.Storage("file store init", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, encodeKey(key)+".json")
}

func (s *FileStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Storage("file store load", err)
	}
	return data, nil
}

func (s *FileStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return faults.Storage("file store save", err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return faults.Storage("file store save", err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return faults.Storage("file store delete", err)
	}
	return nil
}

func (s *FileStore) Keys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, faults.Storage("file store keys", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := decodeKey(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Not one of ours.
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Keys may contain characters that are unsafe in file names. Query
// escaping is injective, so distinct keys never collide on disk.
func encodeKey(key string) string {
	return url.QueryEscape(key)
}

func decodeKey(name string) (string, error) {
	return url.QueryUnescape(name)
}
