// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/auth"
)

func post(handler http.Handler, path, body string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4000"
	if claims != nil {
		req = req.WithContext(ctxutil.WithAuthUser(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_ForgotPassword_SameResponse(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "user@example.com", "oldpass12")
	routes := auth.NewHandler(h.service, nil).Routes()

	known := post(routes, "/forgot-password", `{"email":"user@example.com"}`, nil)
	unknown := post(routes, "/forgot-password", `{"email":"ghost@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	bad := post(routes, "/forgot-password", `{"email":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHandler_RecoveryFlow(t *testing.T) {
	h := newHarness(t, auth.WithCodeGenerator(sequence("004821")))
	h.seedUser(t, "user@example.com", "oldpass12")
	routes := auth.NewHandler(h.service, nil).Routes()

	require.Equal(t, http.StatusOK, post(routes, "/forgot-password", `{"email":"user@example.com"}`, nil).Code)

	rec := post(routes, "/verify-reset-code", `{"email":"user@example.com","code":"000000"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.CodeInvalidCode, decodeError(t, rec).Code)

	rec = post(routes, "/verify-reset-code", `{"email":"user@example.com","code":"4821"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = post(routes, "/verify-reset-code", `{"email":"user@example.com","code":"004821"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.clock.Advance(6 * time.Minute)
	rec = post(routes, "/reset-password", `{"email":"user@example.com","code":"004821","password":"newpass1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.CodeCodeExpired, decodeError(t, rec).Code)
}

func TestHandler_RecoveryRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := newHarness(t)
	limiter := middleware.NewIPRateLimiter(ctx, rate.Every(time.Hour), 1)
	routes := auth.NewHandler(h.service, limiter).Routes()

	assert.Equal(t, http.StatusOK, post(routes, "/forgot-password", `{"email":"a@example.com"}`, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(routes, "/forgot-password", `{"email":"a@example.com"}`, nil).Code)

	// Login is outside the recovery budget.
	assert.Equal(t, http.StatusUnauthorized, post(routes, "/login", `{"email":"a@example.com","password":"whatever1"}`, nil).Code)
}

func TestHandler_LoginAndLogout(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "user@example.com", "oldpass12")
	routes := auth.NewHandler(h.service, nil).Routes()

	rec := post(routes, "/login", `{"email":"user@example.com","password":"oldpass12"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "jwt-for-"+user.ID, body.Data[auth.FieldAccessToken])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	assert.Equal(t, http.StatusUnauthorized, post(routes, "/logout", ``, nil).Code)

	claims := &sec.AuthClaims{UserID: user.ID, Username: user.Username, Role: string(user.Role)}
	assert.Equal(t, http.StatusNoContent, post(routes, "/logout", ``, claims).Code)
	assert.False(t, h.sessions.Validate(context.Background(), user.ID))
}

func TestHandler_ChangePasswordNeedsLiveSession(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "user@example.com", "oldpass12")
	routes := auth.NewHandler(h.service, nil).Routes()

	claims := &sec.AuthClaims{UserID: user.ID, Username: user.Username, Role: string(user.Role)}
	body := `{"current_password":"oldpass12","new_password":"newpass12"}`

	rec := post(routes, "/change-password", body, claims)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, h.sessions.CreateOrRefresh(context.Background(), user.ID, "opaque-session-token"))
	assert.Equal(t, http.StatusOK, post(routes, "/change-password", body, claims).Code)

	// Logout still answers once the session is gone.
	assert.Equal(t, http.StatusNoContent, post(routes, "/logout", ``, claims).Code)
	assert.Equal(t, http.StatusNoContent, post(routes, "/logout", ``, claims).Code)
	assert.Equal(t, http.StatusUnauthorized, post(routes, "/change-password", body, claims).Code)
}
