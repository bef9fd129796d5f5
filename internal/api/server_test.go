// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/storefront/internal/api"
	"github.com/taibuivan/storefront/internal/platform/config"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/account"
	"github.com/taibuivan/storefront/internal/users/auth"
	"github.com/taibuivan/storefront/internal/users/notify"
	"github.com/taibuivan/storefront/internal/users/otp"
	"github.com/taibuivan/storefront/internal/users/session"
)

const cronSecret = "cron-s3cret"

func TestMain(m *testing.M) {
	sec.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// newTestServer wires the full router on in-memory stores.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := sec.NewTokenServiceFromKeys(key, &key.PublicKey, constants.AuthIssuer)

	users := account.NewMemoryStore()
	activity := account.NewMemoryActivityLog()
	sessions := session.NewManager(session.NewMemoryStore(), logger)

	authService := auth.NewService(users, activity, sessions, otp.NewMemoryStore(), notify.NewLogNotifier(logger), tokens, logger)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)

	cfg := &config.Config{ServerPort: "0", Environment: "development", AllowedOriginSuffix: "storefront.shop"}

	server := api.NewServer(ctx, cfg, logger, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, nil),
		Session:   session.NewHandler(sessions),
		Cron:      session.NewCronHandler(sessions, cronSecret),
		Account:   account.NewHandler(account.NewService(users, activity, logger)),
		Sessions:  sessions,
	})

	return server.Handler()
}

func call(handler http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func signIn(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := call(handler, http.MethodPost, "/api/v1/auth/register",
		`{"email":"shopper@example.com","username":"shopper","password":"hunter22"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return signInExisting(t, handler)
}

func signInExisting(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := call(handler, http.MethodPost, "/api/v1/auth/login",
		`{"email":"shopper@example.com","password":"hunter22"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.AccessToken)

	return body.Data.AccessToken
}

func TestServer_InfrastructureRoutes(t *testing.T) {
	handler := newTestServer(t)

	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/ready", "", "").Code)

	metrics := call(handler, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "storefront_http_requests_total")
}

func TestServer_SessionLifecycle(t *testing.T) {
	handler := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/auth/session/validate", "", "").Code)

	token := signIn(t, handler)

	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/api/v1/auth/session/validate", "", token).Code)
	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/api/v1/auth/session", "", token).Code)
	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/api/v1/account/me", "", token).Code)

	assert.Equal(t, http.StatusNoContent, call(handler, http.MethodPost, "/api/v1/auth/logout", "", token).Code)

	// The JWT still verifies; the server-side record is gone.
	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/auth/session/validate", "", token).Code)
}

func TestServer_RevokedSessionLosesAccountAccess(t *testing.T) {
	handler := newTestServer(t)
	token := signIn(t, handler)

	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/api/v1/account/me/activity", "", token).Code)
	require.Equal(t, http.StatusNoContent, call(handler, http.MethodPost, "/api/v1/auth/logout", "", token).Code)

	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/account/me", "", token).Code)
	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/account/me/activity", "", token).Code)

	rec := call(handler, http.MethodPost, "/api/v1/auth/change-password",
		`{"current_password":"hunter22","new_password":"hunter2222"}`, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signing in again restores access.
	token = signInExisting(t, handler)
	assert.Equal(t, http.StatusOK, call(handler, http.MethodGet, "/api/v1/account/me", "", token).Code)
}

func TestServer_AccountRequiresAuth(t *testing.T) {
	handler := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/account/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/account/me", "", "not-a-jwt").Code)
}

func TestServer_CronBypassesJWT(t *testing.T) {
	handler := newTestServer(t)

	rec := call(handler, http.MethodGet, "/api/v1/cron/session-cleanup", "", cronSecret)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cleaned up 0 expired sessions")

	assert.Equal(t, http.StatusUnauthorized, call(handler, http.MethodGet, "/api/v1/cron/session-cleanup", "", "wrong").Code)
}
