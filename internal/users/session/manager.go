// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/metrics"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// Manager owns the lifecycle of session records.
//
// Storage faults never escape as panics: each operation logs the cause and
// returns an [apperr.AppError] with status 500 so callers can decide whether
// the miss is fatal.
type Manager struct {
	store  Store
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a [Manager].
type Option func(*Manager)

// WithWindow overrides the sliding expiration window.
func WithWindow(window time.Duration) Option {
	return func(manager *Manager) {
		if window > 0 {
			manager.window = window
		}
	}
}

// WithClock replaces the time source. Tests use it to step through expiry.
func WithClock(now func() time.Time) Option {
	return func(manager *Manager) {
		manager.now = now
	}
}

// NewManager constructs a [Manager] over the given store.
func NewManager(store Store, logger *slog.Logger, opts ...Option) *Manager {
	manager := &Manager{
		store:  store,
		window: constants.SessionWindow,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// Window returns the configured sliding window.
func (manager *Manager) Window() time.Duration {
	return manager.window
}

// # Lifecycle Operations

/*
CreateOrRefresh records a login for userID keyed by the opaque token.

Description: Stores the token hash with expiry now + window. Calling it again
with the same token only moves the expiry, so the operation is idempotent.

Parameters:
  - context: context.Context
  - userID: string
  - token: string (raw opaque token; only its hash is stored)

Returns:
  - error: apperr.Internal on storage failure
*/
func (manager *Manager) CreateOrRefresh(context context.Context, userID, token string) error {
	now := manager.now()

	record := Session{
		Token:     sec.HashToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(manager.window),
		CreatedAt: now,
	}

	if err := manager.store.Upsert(context, record); err != nil {
		return manager.fail(context, "session_create_failed", userID, err)
	}

	metrics.SessionsCreated.Inc()
	return nil
}

/*
Check reports whether userID holds at least one unexpired record.

Returns:
  - bool: true iff some record expires strictly after now
  - error: apperr.Internal on storage failure
*/
func (manager *Manager) Check(context context.Context, userID string) (bool, error) {
	active, err := manager.store.HasActive(context, userID, manager.now())
	if err != nil {
		return false, manager.fail(context, "session_check_failed", userID, err)
	}
	return active, nil
}

// Validate is [Manager.Check] with failures folded into false.
func (manager *Manager) Validate(context context.Context, userID string) bool {
	active, err := manager.Check(context, userID)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("error").Inc()
		return false
	}

	if active {
		metrics.SessionValidations.WithLabelValues(string(VerdictActive)).Inc()
	} else {
		metrics.SessionValidations.WithLabelValues(string(VerdictNoSession)).Inc()
	}
	return active
}

/*
Inspect classifies the user's session state and returns the governing record.

Description: Distinguishes a user who never had (or lost) all records from a
user whose records have merely run out, so the client can tell the two apart.

Returns:
  - Verdict: active, expired or no_session
  - *Session: the record with the furthest expiry, nil for no_session
  - error: apperr.Internal on storage failure
*/
func (manager *Manager) Inspect(context context.Context, userID string) (Verdict, *Session, error) {
	latest, err := manager.store.Latest(context, userID)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("error").Inc()
		return VerdictNoSession, nil, manager.fail(context, "session_inspect_failed", userID, err)
	}

	verdict := VerdictActive
	switch {
	case latest == nil:
		verdict = VerdictNoSession
	case !latest.ActiveAt(manager.now()):
		verdict = VerdictExpired
	}

	metrics.SessionValidations.WithLabelValues(string(verdict)).Inc()
	return verdict, latest, nil
}

/*
Refresh slides every unexpired record of userID to now + window.

Description: Expired records are not resurrected.

Returns:
  - error: apperr.Internal on storage failure
*/
func (manager *Manager) Refresh(context context.Context, userID string) error {
	now := manager.now()

	extended, err := manager.store.ExtendActive(context, userID, now, now.Add(manager.window))
	if err != nil {
		return manager.fail(context, "session_refresh_failed", userID, err)
	}

	manager.logger.DebugContext(context, "session_refreshed",
		slog.String("user_id", userID),
		slog.Int64("extended", extended),
	)
	return nil
}

/*
Invalidate deletes every record of userID.

Description: Used at sign-out and after security events such as a password
reset. A subsequent [Manager.Check] on the same store observes the deletion.

Returns:
  - error: apperr.Internal on storage failure
*/
func (manager *Manager) Invalidate(context context.Context, userID string) error {
	deleted, err := manager.store.DeleteByUser(context, userID)
	if err != nil {
		return manager.fail(context, "session_invalidate_failed", userID, err)
	}

	manager.logger.InfoContext(context, "sessions_invalidated",
		slog.String("user_id", userID),
		slog.Int64("deleted", deleted),
	)
	return nil
}

/*
SweepExpired removes every record with expiry at or before now, for all users.

Description: Idempotent and safe to run concurrently with itself; the count
is exactly what the store reports as removed.

Returns:
  - SweepResult: number of deleted records
  - error: apperr.Internal on storage failure
*/
func (manager *Manager) SweepExpired(context context.Context) (SweepResult, error) {
	deleted, err := manager.store.DeleteExpired(context, manager.now())
	if err != nil {
		return SweepResult{}, manager.fail(context, "session_sweep_failed", "", err)
	}

	metrics.SessionsSwept.Add(float64(deleted))
	manager.logger.InfoContext(context, "session_sweep_completed", slog.Int64("deleted", deleted))

	return SweepResult{Deleted: deleted}, nil
}

// Snapshot returns the user's governing record when it is still active, nil otherwise.
func (manager *Manager) Snapshot(context context.Context, userID string) (*Session, error) {
	latest, err := manager.store.Latest(context, userID)
	if err != nil {
		return nil, manager.fail(context, "session_snapshot_failed", userID, err)
	}

	if latest == nil || !latest.ActiveAt(manager.now()) {
		return nil, nil
	}
	return latest, nil
}

// fail logs a storage fault and converts it into a client-safe error.
func (manager *Manager) fail(context context.Context, event, userID string, err error) error {
	manager.logger.ErrorContext(context, event,
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)
	return apperr.Internal(fmt.Errorf("%s: %w", event, err))
}
