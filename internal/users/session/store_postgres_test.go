// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/users/session"
)

// openTestPool connects to TEST_DATABASE_URL (migrated schema) or skips.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

/*
TestPostgresStore_Lifecycle runs the store contract against a real database.
*/
func TestPostgresStore_Lifecycle(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	store := session.NewPostgresStore(pool)

	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := pool.Exec(ctx,
		`INSERT INTO users.account (id, email, username, passwordhash, role) VALUES ($1, $2, $3, 'x', 'customer')`,
		userID, userID+"@test.local", userID[:12])
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM users.account WHERE id = $1`, userID) })

	require.NoError(t, store.Upsert(ctx, session.Session{Token: "t-" + userID, UserID: userID, ExpiresAt: now.Add(time.Minute), CreatedAt: now}))
	require.NoError(t, store.Upsert(ctx, session.Session{Token: "e-" + userID, UserID: userID, ExpiresAt: now.Add(-time.Minute), CreatedAt: now}))

	active, err := store.HasActive(ctx, userID, now)
	require.NoError(t, err)
	assert.True(t, active)

	extended, err := store.ExtendActive(ctx, userID, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), extended)

	latest, err := store.Latest(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.ExpiresAt.Equal(now.Add(time.Hour)))

	deleted, err := store.DeleteByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	latest, err = store.Latest(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
