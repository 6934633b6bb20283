// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/ilneora/storefront/pkg/storage/badger"
)

// BadgerBackend persists session entries in an embedded BadgerDB so they
// survive restarts.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend wraps an opened store. The caller keeps ownership of db.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (b *BadgerBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.db.Get(ctx, key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (b *BadgerBackend) Set(ctx context.Context, values map[string]string) error {
	pairs := make(map[string][]byte, len(values))
	for k, v := range values {
		pairs[k] = []byte(v)
	}
	return b.db.SetMany(ctx, pairs)
}

func (b *BadgerBackend) Delete(ctx context.Context, keys ...string) error {
	return b.db.DeleteMany(ctx, keys...)
}

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryBackend) Set(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.values, values)
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

var (
	_ Backend = (*BadgerBackend)(nil)
	_ Backend = (*MemoryBackend)(nil)
)
