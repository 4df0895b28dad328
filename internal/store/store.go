// Package store provides the key-value blob persistence the game engine
// saves its documents into. The engine treats a Store as fire-and-forget:
// Save reports success as a boolean, and a failed save is simply retried on
// the next scheduled persistence, never treated as fatal.
package store

import (
	"context"
	"sync"
)

// Store is the blob-store contract. One key holds one serialized document.
type Store interface {
	// Load returns the blob for key, or ok=false if the key is absent.
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Save writes the blob for key, reporting success.
	Save(ctx context.Context, key string, data []byte) bool
	// Remove deletes the key. Removing an absent key is a no-op.
	Remove(ctx context.Context, key string) error
}

// --- MemoryStore: in-process map, used by tests and the CLI ---

type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailSaves makes every Save report failure, for durability tests.
	FailSaves bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[key] = cp
	return true
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Keys returns the stored keys, for test assertions.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	return keys
}
