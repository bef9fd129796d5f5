// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session maintains the server-side record of every signed-in browser.

A record proves that a login is still inside its sliding window independently
of any credential the client holds. Records are keyed by the hash of an opaque
session token and owned by a user; the user is signed in while any of their
records has not expired.

Architecture:

  - Manager: lifecycle operations (create, check, refresh, invalidate, sweep).
  - Store: persistence contract with Postgres and in-memory implementations.
  - Sweeper: optional in-process trigger for the expired-record sweep.
  - Handler / CronHandler: HTTP delivery for the validate, snapshot and
    scheduled cleanup endpoints.
*/
package session

import (
	"context"
	"time"
)

// # Domain Entities

// Session is one persisted login window.
type Session struct {
	// Token is the SHA-256 hex digest of the opaque token issued at sign-in.
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ActiveAt reports whether the record is still valid at the given instant.
// Expiry is exclusive: a record expiring exactly at now is already dead.
func (s *Session) ActiveAt(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// SweepResult reports the outcome of a cleanup pass.
type SweepResult struct {
	Deleted int64 `json:"deleted"`
}

// Verdict classifies a user's session state for the validation endpoint.
type Verdict string

const (
	VerdictActive    Verdict = "active"
	VerdictNoSession Verdict = "no_session"
	VerdictExpired   Verdict = "expired"
)

// # Storage Contract

// Store persists session records.
//
// Every mutation is a single statement scoped by key, so implementations
// rely on row-level atomicity of the backing store and need no extra locking.
type Store interface {

	/*
		Upsert inserts the record or, when the token already exists, moves its
		expiry to the new value.

		Parameters:
		  - context: context.Context
		  - session: Session

		Returns:
		  - error: Persistence failures
	*/
	Upsert(context context.Context, session Session) error

	/*
		HasActive reports whether any record of the user expires after now.
	*/
	HasActive(context context.Context, userID string, now time.Time) (bool, error)

	/*
		Latest returns the user's record with the furthest expiry, expired or not.

		Returns:
		  - *Session: nil when the user has no record at all
		  - error: Database retrieval failures
	*/
	Latest(context context.Context, userID string) (*Session, error)

	/*
		ExtendActive moves every unexpired record of the user to newExpiry.
		Expired records are left as they are.

		Returns:
		  - int64: Number of records extended
		  - error: Persistence failures
	*/
	ExtendActive(context context.Context, userID string, now, newExpiry time.Time) (int64, error)

	/*
		DeleteByUser removes every record of the user unconditionally.
	*/
	DeleteByUser(context context.Context, userID string) (int64, error)

	/*
		DeleteExpired removes every record whose expiry is at or before now.

		Returns:
		  - int64: Exact number of rows removed
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context, now time.Time) (int64, error)
}
