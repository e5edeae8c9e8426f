package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// NewMemoryStore creates an in-memory blob store, used by tests
// and local development
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: map[string][]byte{},
	}
}

// MemoryStore keeps blobs in a process local map
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// Put stores data under a fresh ulid-suffixed key derived from keyHint
func (s *MemoryStore) Put(ctx context.Context, data []byte, mimeType, keyHint string) (string, error) {
	key := path.Join(keyHint, ulid.Make().String()+extensionFor(mimeType))
	url := "mem://" + key
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.blobs[url] = cp
	s.mu.Unlock()
	return url, nil
}

// Delete removes the blob behind url
func (s *MemoryStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	delete(s.blobs, url)
	s.mu.Unlock()
	return nil
}

// ParseKey extracts the key from a memory URL
func (s *MemoryStore) ParseKey(url string) (string, error) {
	if !strings.HasPrefix(url, "mem://") {
		return "", fmt.Errorf("url %s is not a memory blob url", url)
	}
	return strings.TrimPrefix(url, "mem://"), nil
}

// Has reports whether a blob is still retrievable
func (s *MemoryStore) Has(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[url]
	return ok
}

// Len returns the number of stored blobs
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
