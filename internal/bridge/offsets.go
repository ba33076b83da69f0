package bridge

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	perrors "github.com/perchdev/perch/errors"
)

// OffsetStore maps bridge-file paths to the last-consumed byte offset. The
// watcher persists after every successful batch so a restart resumes without
// re-delivering already-ingested bytes.
type OffsetStore interface {
	Get(path string) int64
	Set(path string, offset int64) error
}

// FileOffsetStore persists offsets in a yaml side file. It is the production
// OffsetStore; tests inject an in-memory one.
type FileOffsetStore struct {
	path string

	mu      sync.Mutex
	offsets map[string]int64
}

// NewFileOffsetStore loads the offset file at path. A missing or corrupt
// file yields an empty table: offsets then start at 0, which re-delivers
// rather than loses bridge bytes.
func NewFileOffsetStore(path string) *FileOffsetStore {
	s := &FileOffsetStore{
		path:    path,
		offsets: make(map[string]int64),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var offsets map[string]int64
	if err := yaml.Unmarshal(data, &offsets); err != nil {
		return s
	}
	if offsets != nil {
		s.offsets = offsets
	}
	return s
}

func (s *FileOffsetStore) Get(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsets[path]
}

func (s *FileOffsetStore) Set(path string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[path] = offset

	data, err := yaml.Marshal(s.offsets)
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeOffsetStore, "marshal offsets")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeOffsetStore, "create offsets directory")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeOffsetStore, "write offsets file")
	}
	return nil
}

// MemoryOffsetStore is an in-memory OffsetStore for tests.
type MemoryOffsetStore struct {
	mu      sync.Mutex
	offsets map[string]int64
}

func NewMemoryOffsetStore() *MemoryOffsetStore {
	return &MemoryOffsetStore{offsets: make(map[string]int64)}
}

func (s *MemoryOffsetStore) Get(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsets[path]
}

func (s *MemoryOffsetStore) Set(path string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[path] = offset
	return nil
}
