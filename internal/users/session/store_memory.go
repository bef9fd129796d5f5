// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded [Store] used by tests and single-node demos.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Session)}
}

// Upsert implements [Store].
func (store *MemoryStore) Upsert(_ context.Context, session Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if existing, ok := store.records[session.Token]; ok {
		existing.ExpiresAt = session.ExpiresAt
		store.records[session.Token] = existing
		return nil
	}

	store.records[session.Token] = session
	return nil
}

// HasActive implements [Store].
func (store *MemoryStore) HasActive(_ context.Context, userID string, now time.Time) (bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, record := range store.records {
		if record.UserID == userID && record.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

// Latest implements [Store].
func (store *MemoryStore) Latest(_ context.Context, userID string) (*Session, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var latest *Session
	for _, record := range store.records {
		if record.UserID != userID {
			continue
		}
		if latest == nil || record.ExpiresAt.After(latest.ExpiresAt) {
			copied := record
			latest = &copied
		}
	}
	return latest, nil
}

// ExtendActive implements [Store].
func (store *MemoryStore) ExtendActive(_ context.Context, userID string, now, newExpiry time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var extended int64
	for token, record := range store.records {
		if record.UserID == userID && record.ActiveAt(now) {
			record.ExpiresAt = newExpiry
			store.records[token] = record
			extended++
		}
	}
	return extended, nil
}

// DeleteByUser implements [Store].
func (store *MemoryStore) DeleteByUser(_ context.Context, userID string) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var deleted int64
	for token, record := range store.records {
		if record.UserID == userID {
			delete(store.records, token)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteExpired implements [Store].
func (store *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var deleted int64
	for token, record := range store.records {
		if !record.ActiveAt(now) {
			delete(store.records, token)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored records, expired ones included.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.records)
}
