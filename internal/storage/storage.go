// Package storage provides attachment file storage for expenditure
// supporting documents.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// MaxAttachmentSize is the upload size cap for a single attachment.
const MaxAttachmentSize = 5 << 20 // 5 MiB

// AllowedContentTypes are the accepted attachment MIME types.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// FileStore abstracts where attachment bytes live.
type FileStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process FileStore used in tests and local
// development without an object store.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

// Put stores a copy of the data under the key.
func (m *MemoryStore) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.files[key] = buf
	return nil
}

// Get returns the data stored under the key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("storage: key %q not found", key)
	}
	return data, nil
}

// Delete removes the data stored under the key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}
