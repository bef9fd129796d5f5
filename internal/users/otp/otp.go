// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package otp stores short-lived one-time codes bound to an identifier and a purpose.

There is at most one live record per (identifier, purpose): issuing a new code
overwrites the previous one. Consumption is an atomic compare-and-delete so two
concurrent redemptions of the same code cannot both succeed.

Implementations:

  - PostgresStore: users.verificationtoken, DELETE ... RETURNING for Consume.
  - RedisStore: JSON value with TTL, Lua compare-and-delete for Consume.
  - MemoryStore: mutex-guarded map for tests.
*/
package otp

import (
	"context"
	"errors"
	"time"
)

// PurposePasswordReset scopes codes issued by the forgot-password flow.
const PurposePasswordReset = "password-reset"

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("otp: record not found")

// Record is a persisted one-time code.
type Record struct {
	Identifier string
	Purpose    string
	Code       string
	ExpiresAt  time.Time

	// Attempts counts wrong guesses recorded against this code.
	Attempts int
}

// ExpiredAt reports whether the code can no longer be redeemed at now.
func (r *Record) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Store persists one-time codes.
type Store interface {

	/*
		Put upserts the record for (Identifier, Purpose), replacing any previous code.
	*/
	Put(context context.Context, record Record) error

	/*
		Find returns the record only when identifier, purpose and code all match.
		Expired records are returned as-is so callers can report expiry.

		Returns:
		  - *Record: The matching record
		  - error: ErrNotFound or storage failures
	*/
	Find(context context.Context, identifier, purpose, code string) (*Record, error)

	/*
		Delete removes the record for (identifier, purpose) if any.
	*/
	Delete(context context.Context, identifier, purpose string) error

	/*
		Consume deletes the record only if its code matches and it is unexpired
		at now, reporting whether a record was removed. It is the single atomic
		step that redeems a code.
	*/
	Consume(context context.Context, identifier, purpose, code string, now time.Time) (bool, error)

	/*
		RecordMiss increments the wrong-guess counter of the live record for
		(identifier, purpose).

		Returns:
		  - int: The counter after the increment, 0 when no record exists
		  - error: Storage failures
	*/
	RecordMiss(context context.Context, identifier, purpose string) (int, error)
}
