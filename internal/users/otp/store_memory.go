// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	identifier string
	purpose    string
}

// MemoryStore is an in-process [Store] used by tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[memoryKey]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memoryKey]Record)}
}

// Put implements [Store].
func (store *MemoryStore) Put(_ context.Context, record Record) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	record.Attempts = 0
	store.records[memoryKey{record.Identifier, record.Purpose}] = record
	return nil
}

// Find implements [Store].
func (store *MemoryStore) Find(_ context.Context, identifier, purpose, code string) (*Record, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, ok := store.records[memoryKey{identifier, purpose}]
	if !ok || record.Code != code {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(_ context.Context, identifier, purpose string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.records, memoryKey{identifier, purpose})
	return nil
}

// Consume implements [Store].
func (store *MemoryStore) Consume(_ context.Context, identifier, purpose, code string, now time.Time) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	key := memoryKey{identifier, purpose}
	record, ok := store.records[key]
	if !ok || record.Code != code || record.ExpiredAt(now) {
		return false, nil
	}

	delete(store.records, key)
	return true, nil
}

// RecordMiss implements [Store].
func (store *MemoryStore) RecordMiss(_ context.Context, identifier, purpose string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	key := memoryKey{identifier, purpose}
	record, ok := store.records[key]
	if !ok {
		return 0, nil
	}

	record.Attempts++
	store.records[key] = record
	return record.Attempts, nil
}

// Get returns the live record for (identifier, purpose) regardless of code.
func (store *MemoryStore) Get(identifier, purpose string) (Record, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, ok := store.records[memoryKey{identifier, purpose}]
	return record, ok
}
