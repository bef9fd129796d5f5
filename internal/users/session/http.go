// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

// # Definitions & Constructors

// Handler serves the session validation and snapshot endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a new [Handler].
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Routes returns a [chi.Router] for the session endpoints.
//
// # Endpoints
//   - GET /validate : Validity probe polled by the client watchdog.
//   - GET /         : Current session snapshot.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/validate", handler.validate)
	router.Get("/", handler.snapshot)

	return router
}

// # Response Payloads

// ValidationResponse is the body of the validate endpoint.
type ValidationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// SnapshotResponse is the body of the snapshot endpoint.
type SnapshotResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

const reasonInternalError = "internal_error"

/*
validate reports whether the caller still holds an active session.

GET /api/v1/auth/session/validate

Description: A successful check slides the window forward, so an open tab
that keeps polling keeps its user signed in.

Response:
  - 200: {valid: true}
  - 401: {valid: false, reason: "no_session" | "expired"}
  - 500: {valid: false, reason: "internal_error"}
*/
func (handler *Handler) validate(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	claims := requestutil.Claims(request)
	if claims == nil {
		respond.JSON(writer, http.StatusUnauthorized, ValidationResponse{Reason: string(VerdictNoSession)})
		return
	}

	verdict, _, err := handler.manager.Inspect(ctx, claims.UserID)
	if err != nil {
		respond.JSON(writer, http.StatusInternalServerError, ValidationResponse{Reason: reasonInternalError})
		return
	}

	if verdict != VerdictActive {
		respond.JSON(writer, http.StatusUnauthorized, ValidationResponse{Reason: string(verdict)})
		return
	}

	// A missed refresh only shortens the window; the answer is still valid.
	if err := handler.manager.Refresh(ctx, claims.UserID); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_validate_refresh_skipped",
			slog.String("user_id", claims.UserID),
		)
	}

	respond.JSON(writer, http.StatusOK, ValidationResponse{Valid: true})
}

/*
snapshot returns the current authenticated session.

GET /api/v1/auth/session

Response:
  - 200: SnapshotResponse
  - 401: null
  - 500: standard error envelope
*/
func (handler *Handler) snapshot(writer http.ResponseWriter, request *http.Request) {
	claims := requestutil.Claims(request)
	if claims == nil {
		respond.JSON(writer, http.StatusUnauthorized, nil)
		return
	}

	current, err := handler.manager.Snapshot(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if current == nil {
		respond.JSON(writer, http.StatusUnauthorized, nil)
		return
	}

	respond.JSON(writer, http.StatusOK, SnapshotResponse{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: current.ExpiresAt,
	})
}
