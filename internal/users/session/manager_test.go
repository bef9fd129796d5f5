// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/users/session"
)

// # Test Helpers

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newManager(store session.Store, clock *fakeClock) *session.Manager {
	return session.NewManager(store, discardLogger(), session.WithClock(clock.Now), session.WithWindow(30*time.Minute))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upsert(ctx context.Context, s session.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStore) HasActive(ctx context.Context, userID string, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Latest(ctx context.Context, userID string) (*session.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*session.Session)
	return s, args.Error(1)
}

func (m *mockStore) ExtendActive(ctx context.Context, userID string, now, newExpiry time.Time) (int64, error) {
	args := m.Called(ctx, userID, now, newExpiry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// # Sliding Window

/*
TestManager_SlidingWindow checks that a refresh at T keeps the session valid
through T+30m and invalid strictly after.
*/
func TestManager_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	manager := newManager(session.NewMemoryStore(), clock)

	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "tok-1"))
	assert.True(t, manager.Validate(ctx, "u1"))

	clock.Advance(20 * time.Minute)
	require.NoError(t, manager.Refresh(ctx, "u1"))

	clock.Advance(30*time.Minute - time.Nanosecond)
	assert.True(t, manager.Validate(ctx, "u1"), "valid until the refreshed expiry")

	clock.Advance(time.Nanosecond)
	assert.False(t, manager.Validate(ctx, "u1"), "expiry is exclusive")
}

/*
TestManager_CreateIsIdempotent keeps a single record for repeated logins with one token.
*/
func TestManager_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := session.NewMemoryStore()
	manager := newManager(store, clock)

	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "tok-1"))
	clock.Advance(10 * time.Minute)
	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "tok-1"))

	assert.Equal(t, 1, store.Len())

	latest, err := store.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(30*time.Minute), latest.ExpiresAt)
}

/*
TestManager_RefreshDoesNotResurrect leaves expired records expired.
*/
func TestManager_RefreshDoesNotResurrect(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	manager := newManager(session.NewMemoryStore(), clock)

	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "tok-1"))
	clock.Advance(31 * time.Minute)

	require.NoError(t, manager.Refresh(ctx, "u1"))
	assert.False(t, manager.Validate(ctx, "u1"))

	verdict, _, err := manager.Inspect(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, session.VerdictExpired, verdict)
}

/*
TestManager_MultipleDevices validates while any one record is active.
*/
func TestManager_MultipleDevices(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	manager := newManager(session.NewMemoryStore(), clock)

	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "laptop"))
	clock.Advance(20 * time.Minute)
	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "phone"))

	clock.Advance(15 * time.Minute)
	assert.True(t, manager.Validate(ctx, "u1"), "phone record still active")
}

// # Sweep

/*
TestManager_SweepExpired removes exactly the records at or before now.
*/
func TestManager_SweepExpired(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := session.NewMemoryStore()
	manager := newManager(store, clock)
	base := clock.Now()

	records := []session.Session{
		{Token: "a", UserID: "u1", ExpiresAt: base.Add(-time.Hour)},
		{Token: "b", UserID: "u2", ExpiresAt: base},
		{Token: "c", UserID: "u3", ExpiresAt: base.Add(time.Nanosecond)},
		{Token: "d", UserID: "u1", ExpiresAt: base.Add(time.Hour)},
	}
	for _, record := range records {
		require.NoError(t, store.Upsert(ctx, record))
	}

	result, err := manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Deleted)
	assert.Equal(t, 2, store.Len())
	assert.True(t, manager.Validate(ctx, "u3"))
	assert.True(t, manager.Validate(ctx, "u1"))

	again, err := manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Deleted)
}

// # Invalidation

/*
TestManager_InvalidateThenValidate observes the delete immediately.
*/
func TestManager_InvalidateThenValidate(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	manager := newManager(session.NewMemoryStore(), clock)

	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "tok-1"))
	require.NoError(t, manager.CreateOrRefresh(ctx, "u1", "tok-2"))
	require.NoError(t, manager.CreateOrRefresh(ctx, "u2", "tok-3"))

	require.NoError(t, manager.Invalidate(ctx, "u1"))

	assert.False(t, manager.Validate(ctx, "u1"))
	assert.True(t, manager.Validate(ctx, "u2"))

	verdict, current, err := manager.Inspect(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, session.VerdictNoSession, verdict)
	assert.Nil(t, current)
}

// # Failure Semantics

/*
TestManager_StorageFaults converts every storage failure into a 500 AppError.
*/
func TestManager_StorageFaults(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	store := &mockStore{}
	store.On("Upsert", mock.Anything, mock.Anything).Return(boom)
	store.On("HasActive", mock.Anything, "u1", mock.Anything).Return(false, boom)
	store.On("ExtendActive", mock.Anything, "u1", mock.Anything, mock.Anything).Return(int64(0), boom)
	store.On("DeleteByUser", mock.Anything, "u1").Return(int64(0), boom)
	store.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(0), boom)

	manager := newManager(store, newClock())

	assertInternal := func(err error) {
		t.Helper()
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, apperr.CodeInternal, ae.Code)
		assert.ErrorIs(t, err, boom)
	}

	assertInternal(manager.CreateOrRefresh(ctx, "u1", "tok"))
	assertInternal(manager.Refresh(ctx, "u1"))
	assertInternal(manager.Invalidate(ctx, "u1"))

	_, err := manager.Check(ctx, "u1")
	assertInternal(err)

	_, err = manager.SweepExpired(ctx)
	assertInternal(err)

	assert.False(t, manager.Validate(ctx, "u1"), "faults read as not validated")
	store.AssertExpectations(t)
}

/*
TestManager_StoresTokenHash never persists the raw token.
*/
func TestManager_StoresTokenHash(t *testing.T) {
	store := &mockStore{}
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(s session.Session) bool {
		return s.Token != "raw-token" && len(s.Token) == 64 && s.UserID == "u1"
	})).Return(nil)

	manager := newManager(store, newClock())

	require.NoError(t, manager.CreateOrRefresh(context.Background(), "u1", "raw-token"))
	store.AssertExpectations(t)
}

// # Sweeper

func TestSweeper_RunsUntilCancelled(t *testing.T) {
	store := session.NewMemoryStore()
	clock := newClock()
	manager := newManager(store, clock)

	require.NoError(t, store.Upsert(context.Background(), session.Session{
		Token: "old", UserID: "u1", ExpiresAt: clock.Now().Add(-time.Minute),
	}))

	sweeper := session.NewSweeper(manager, 5*time.Millisecond, discardLogger())
	require.True(t, sweeper.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweeper_DisabledReturnsImmediately(t *testing.T) {
	sweeper := session.NewSweeper(newManager(session.NewMemoryStore(), newClock()), 0, discardLogger())
	assert.False(t, sweeper.Enabled())

	sweeper.Run(context.Background())
}
