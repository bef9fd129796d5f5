// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/database/schema"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/postgres"
)

// # User Repository

// PostgresStore implements [Store] on users.account.
type PostgresStore struct {
	db postgres.Querier
}

// NewPostgresStore creates a new PostgreSQL implementation of the [Store].
func NewPostgresStore(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (repository *PostgresStore) findOne(context context.Context, column string, arg any) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "), schema.UserAccount.Table, column,
	)

	user := &User{}
	err := repository.db.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_failed: %w", err)
	}

	return user, nil
}

// FindByEmail implements [Store].
func (repository *PostgresStore) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.Email, email)
}

// FindByID implements [Store].
func (repository *PostgresStore) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.ID, id)
}

/*
Create persists a new user record into the users.account table.

Description: Assigns a UUID v7 when the entity has no ID and initializes
timestamps.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, wrapped failures otherwise
*/
func (repository *PostgresStore) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.UserAccount.Table, strings.Join(schema.UserAccount.Columns(), ", "),
	)

	if user.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("postgres_account_repo_id_failed: %w", err)
		}
		user.ID = id.String()
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("An account with this email already exists")
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

// UpdatePassword implements [Store].
func (repository *PostgresStore) UpdatePassword(context context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.Password, schema.UserAccount.UpdatedAt, schema.UserAccount.ID,
	)

	tag, err := repository.db.Exec(context, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// # Activity Repository

// PostgresActivityLog implements [ActivityLog] on system.auditlog.
type PostgresActivityLog struct {
	db postgres.Querier
}

// NewPostgresActivityLog creates a new PostgreSQL implementation of the [ActivityLog].
func NewPostgresActivityLog(db postgres.Querier) *PostgresActivityLog {
	return &PostgresActivityLog{db: db}
}

// Record implements [ActivityLog].
func (repository *PostgresActivityLog) Record(context context.Context, entry Activity) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		schema.SystemAuditLog.Table, strings.Join(schema.SystemAuditLog.Columns(), ", "),
	)

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("postgres_auditlog_repo_id_failed: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if _, err := repository.db.Exec(context, query, entry.ID, entry.UserID, entry.Action, entry.IPAddress, entry.CreatedAt); err != nil {
		return fmt.Errorf("postgres_auditlog_repo_record_failed: %w", err)
	}

	return nil
}

// Recent implements [ActivityLog].
func (repository *PostgresActivityLog) Recent(context context.Context, userID string, limit int) ([]Activity, error) {
	table := schema.SystemAuditLog
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, COALESCE(%s, ''), %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2`,
		table.ID, table.UserID, table.Action, table.IPAddress, table.CreatedAt,
		table.Table, table.UserID, table.CreatedAt,
	)

	rows, err := repository.db.Query(context, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres_auditlog_repo_recent_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Activity, 0, limit)
	for rows.Next() {
		var entry Activity
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.IPAddress, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_auditlog_repo_scan_failed: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_auditlog_repo_rows_failed: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan implements [ActivityLog].
func (repository *PostgresActivityLog) DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`, schema.SystemAuditLog.Table, schema.SystemAuditLog.CreatedAt)

	tag, err := repository.db.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_auditlog_repo_purge_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
