// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/storefront/internal/platform/apperr"
)

// MemoryStore is an in-process [Store] used by tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

// FindByEmail implements [Store].
func (store *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, user := range store.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

// FindByID implements [Store].
func (store *MemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return &user, nil
}

// Create implements [Store].
func (store *MemoryStore) Create(_ context.Context, user *User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.users {
		if existing.Email == user.Email {
			return apperr.Conflict("An account with this email already exists")
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	store.users[user.ID] = *user
	return nil
}

// UpdatePassword implements [Store].
func (store *MemoryStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[userID]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	store.users[userID] = user
	return nil
}

// MemoryActivityLog is an in-process [ActivityLog] used by tests.
type MemoryActivityLog struct {
	mu      sync.Mutex
	entries []Activity
}

// NewMemoryActivityLog creates an empty log.
func NewMemoryActivityLog() *MemoryActivityLog {
	return &MemoryActivityLog{}
}

// Record implements [ActivityLog].
func (trail *MemoryActivityLog) Record(_ context.Context, entry Activity) error {
	trail.mu.Lock()
	defer trail.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	trail.entries = append(trail.entries, entry)
	return nil
}

// Recent implements [ActivityLog].
func (trail *MemoryActivityLog) Recent(_ context.Context, userID string, limit int) ([]Activity, error) {
	trail.mu.Lock()
	defer trail.mu.Unlock()

	var matched []Activity
	for _, entry := range trail.entries {
		if entry.UserID == userID {
			matched = append(matched, entry)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// DeleteOlderThan implements [ActivityLog].
func (trail *MemoryActivityLog) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	trail.mu.Lock()
	defer trail.mu.Unlock()

	kept := trail.entries[:0]
	var deleted int64
	for _, entry := range trail.entries {
		if entry.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	trail.entries = kept
	return deleted, nil
}

// Entries returns a copy of every recorded entry in insertion order.
func (trail *MemoryActivityLog) Entries() []Activity {
	trail.mu.Lock()
	defer trail.mu.Unlock()

	return append([]Activity(nil), trail.entries...)
}
