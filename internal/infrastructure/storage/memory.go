package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/erp/procurement/internal/application/procurement"
)

// MemoryBlobStorage keeps blobs in a map. It backs local runs without an
// object store and the service tests.
type MemoryBlobStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStorage creates an empty store
func NewMemoryBlobStorage() *MemoryBlobStorage {
	return &MemoryBlobStorage{blobs: make(map[string][]byte)}
}

// Upload stores a copy of data under path
func (m *MemoryBlobStorage) Upload(_ context.Context, path string, data []byte, _ string) error {
	if path == "" {
		return errors.New("storage path is required")
	}
	m.mu.Lock()
	m.blobs[path] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

// Remove deletes paths; missing paths are ignored
func (m *MemoryBlobStorage) Remove(_ context.Context, paths []string) error {
	m.mu.Lock()
	for _, p := range paths {
		delete(m.blobs, p)
	}
	m.mu.Unlock()
	return nil
}

// Get returns the blob stored under path
func (m *MemoryBlobStorage) Get(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[path]
	return b, ok
}

// Paths lists stored paths in order
func (m *MemoryBlobStorage) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.blobs))
	for p := range m.blobs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var _ procurement.BlobStorage = (*MemoryBlobStorage)(nil)
