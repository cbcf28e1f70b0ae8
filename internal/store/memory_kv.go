// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"sync"
)

// memoryKeyValueStorage is the session-scoped [KeyValueStorage]: its values
// live as long as the process.
type memoryKeyValueStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryKeyValueStorage returns an empty session-scoped storage.
func NewMemoryKeyValueStorage() KeyValueStorage {
	return &memoryKeyValueStorage{items: make(map[string]string)}
}

func (m *memoryKeyValueStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (m *memoryKeyValueStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

func (m *memoryKeyValueStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
