// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/respond"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// Purger deletes rows older than a cutoff.
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeTask is an extra retention job run after the session sweep.
type PurgeTask struct {
	Name      string
	Purger    Purger
	Retention time.Duration
}

// CronHandler serves the endpoint called by the external scheduler.
//
// It is mounted outside the JWT middleware: the caller presents the shared
// cron secret as its bearer credential, not a user token.
type CronHandler struct {
	manager *Manager
	secret  string
	tasks   []PurgeTask
	now     func() time.Time
}

// NewCronHandler constructs a [CronHandler].
func NewCronHandler(manager *Manager, secret string, tasks ...PurgeTask) *CronHandler {
	return &CronHandler{
		manager: manager,
		secret:  secret,
		tasks:   tasks,
		now:     time.Now,
	}
}

// Routes returns a [chi.Router] for the scheduled jobs.
//
// # Endpoints
//   - GET /session-cleanup : Sweep expired sessions, then run the purge tasks.
func (handler *CronHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/session-cleanup", handler.sessionCleanup)
	return router
}

// CronResponse is the body returned to the scheduler.
type CronResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

/*
sessionCleanup runs the expired-session sweep.

GET /api/v1/cron/session-cleanup

Request:
  - Header: authorization: Bearer <CRON_SECRET>

Response:
  - 200: {success: true, message}
  - 401: {success: false, error: "Unauthorized"}
  - 500: {success: false, error}
*/
func (handler *CronHandler) sessionCleanup(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	if !handler.authorized(request) {
		logger.WarnContext(ctx, "cron_unauthorized_attempt", slog.String("ip", middleware.RealIP(request)))
		respond.JSON(writer, http.StatusUnauthorized, CronResponse{Error: "Unauthorized"})
		return
	}

	result, err := handler.manager.SweepExpired(ctx)
	if err != nil {
		respond.JSON(writer, http.StatusInternalServerError, CronResponse{Error: "Failed to clean up sessions"})
		return
	}

	message := fmt.Sprintf("Cleaned up %d expired sessions", result.Deleted)

	for _, task := range handler.tasks {
		if task.Purger == nil || task.Retention <= 0 {
			continue
		}

		purged, err := task.Purger.DeleteOlderThan(ctx, handler.now().Add(-task.Retention))
		if err != nil {
			logger.ErrorContext(ctx, "cron_purge_failed",
				slog.String("task", task.Name),
				slog.String("error", err.Error()),
			)
			respond.JSON(writer, http.StatusInternalServerError, CronResponse{Error: "Failed to clean up " + task.Name})
			return
		}

		message += fmt.Sprintf(", %d %s entries", purged, task.Name)
	}

	respond.JSON(writer, http.StatusOK, CronResponse{Success: true, Message: message})
}

// authorized compares the bearer credential with the secret in constant time.
func (handler *CronHandler) authorized(request *http.Request) bool {
	if handler.secret == "" {
		return false
	}
	token, ok := middleware.BearerToken(request.Header.Get(constants.HeaderAuthorization))
	return ok && sec.ConstantTimeEqual(token, handler.secret)
}
