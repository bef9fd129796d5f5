// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/account"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.COM ", "user@example.com"},
		{"ｕｓｅｒ@ｅｘａｍｐｌｅ.com", "user@example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, account.NormalizeEmail(tt.in), tt.in)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()

	user := &account.User{Email: "a@example.com", Username: "a", PasswordHash: "h1", Role: sec.RoleCustomer}
	require.NoError(t, store.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	err := store.Create(ctx, &account.User{Email: "a@example.com"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	require.NoError(t, store.UpdatePassword(ctx, user.ID, "h2"))
	found, err := store.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", found.PasswordHash)

	_, err = store.FindByID(ctx, "missing")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = store.UpdatePassword(ctx, "missing", "h3")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestMemoryActivityLog(t *testing.T) {
	ctx := context.Background()
	trail := account.NewMemoryActivityLog()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, action := range []string{account.ActionRegister, account.ActionLogin, account.ActionPasswordReset} {
		require.NoError(t, trail.Record(ctx, account.Activity{UserID: "u1", Action: action, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}
	require.NoError(t, trail.Record(ctx, account.Activity{UserID: "u2", Action: account.ActionLogin, CreatedAt: base}))

	recent, err := trail.Recent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, account.ActionPasswordReset, recent[0].Action)
	assert.Equal(t, account.ActionLogin, recent[1].Action)

	purged, err := trail.DeleteOlderThan(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.Len(t, trail.Entries(), 2)
}

// # HTTP

func serve(handler http.Handler, path string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if claims != nil {
		req = req.WithContext(ctxutil.WithAuthUser(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	ctx := context.Background()
	users := account.NewMemoryStore()
	trail := account.NewMemoryActivityLog()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	user := &account.User{Email: "a@example.com", Username: "alice", PasswordHash: "secret-hash", Role: sec.RoleCustomer}
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, trail.Record(ctx, account.Activity{UserID: user.ID, Action: account.ActionLogin}))

	routes := account.NewHandler(account.NewService(users, trail, logger)).Routes()
	claims := &sec.AuthClaims{UserID: user.ID, Username: "alice", Role: string(sec.RoleCustomer)}

	t.Run("anonymous", func(t *testing.T) {
		rec := serve(routes, "/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("profile hides hash", func(t *testing.T) {
		rec := serve(routes, "/me", claims)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret-hash")

		var body struct {
			Data account.User `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "alice", body.Data.Username)
	})

	t.Run("activity", func(t *testing.T) {
		rec := serve(routes, "/me/activity?limit=5", claims)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data []account.Activity `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, account.ActionLogin, body.Data[0].Action)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := serve(routes, "/me/activity?limit=abc", claims)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
