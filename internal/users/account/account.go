// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns the storefront user record and its security audit trail.

# Architecture

  - Entities: User, Activity.
  - Stores: Store (users.account) and ActivityLog (system.auditlog), each with
    a PostgreSQL and an in-memory implementation.
  - Delivery: read-only profile endpoints under /api/v1/account.

Credential changes (login, password reset) live in the auth package; this
package only persists what auth decides.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/storefront/internal/platform/sec"
)

// # Domain Entities

// User is a registered storefront account.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Activity is one entry of the security audit trail.
type Activity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit actions.
const (
	ActionRegister       = "register"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionPasswordChange = "password_change"
	ActionPasswordReset  = "password_reset"
)

// # Repository Contracts

// Store defines the persistence contract for user accounts.
type Store interface {
	/*
		FindByEmail retrieves a user by normalized email.

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	// FindByID retrieves a user by primary key.
	FindByID(context context.Context, id string) (*User, error)

	/*
		Create persists a new account.

		Returns:
		  - error: apperr.Conflict when the email is taken, storage failures otherwise
	*/
	Create(context context.Context, user *User) error

	// UpdatePassword replaces the stored bcrypt hash.
	UpdatePassword(context context.Context, userID, passwordHash string) error
}

// ActivityLog defines the append-only audit trail contract.
type ActivityLog interface {
	// Record appends an entry.
	Record(context context.Context, entry Activity) error

	// Recent lists the newest entries for a user, newest first.
	Recent(context context.Context, userID string, limit int) ([]Activity, error)

	// DeleteOlderThan removes entries created before cutoff and returns the count.
	DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error)
}
