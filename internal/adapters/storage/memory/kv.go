// Package memory provides in-process implementations of the storage ports.
package memory

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// KeyValueStore is a map-backed ports.KeyValueStore. Contents are lost on
// restart; it backs tests and storage-less local runs.
type KeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewKeyValueStore creates an empty store.
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{values: make(map[string]string)}
}

// Get returns the value under key or a NotFoundError.
func (s *KeyValueStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", domain.NewNotFoundError("key", key)
	}

	return v, nil
}

// Set stores value under key.
func (s *KeyValueStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}
