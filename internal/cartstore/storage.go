package cartstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Storage.Get when nothing is saved under key.
var ErrNotFound = errors.New("cartstore: key not found")

// Storage is the durable key-value store that holds cart snapshots.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStorage keeps snapshots in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	data   map[string]string
	writes int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.writes++
	return nil
}

// Writes returns how many Set calls have been made.
func (m *MemoryStorage) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
