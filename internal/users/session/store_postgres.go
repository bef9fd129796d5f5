// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/storefront/internal/platform/database/schema"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/postgres"
)

// PostgresStore implements [Store] on the users.session table.
type PostgresStore struct {
	db postgres.Querier
}

// NewPostgresStore creates a new PostgreSQL implementation of the [Store].
func NewPostgresStore(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

/*
Upsert inserts a record keyed by token or moves the expiry of an existing one.

Parameters:
  - context: context.Context
  - session: Session

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresStore) Upsert(context context.Context, session Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s`,
		schema.UserSession.Table,
		schema.UserSession.Token, schema.UserSession.UserID, schema.UserSession.ExpiresAt, schema.UserSession.CreatedAt,
		schema.UserSession.Token, schema.UserSession.ExpiresAt, schema.UserSession.ExpiresAt,
	)

	_, err := repository.db.Exec(context, query,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_upsert_failed: %w", err)
	}

	return nil
}

// HasActive implements [Store].
func (repository *PostgresStore) HasActive(context context.Context, userID string, now time.Time) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE %s = $1 AND %s > $2
		)`,
		schema.UserSession.Table, schema.UserSession.UserID, schema.UserSession.ExpiresAt,
	)

	var active bool
	if err := repository.db.QueryRow(context, query, userID, now).Scan(&active); err != nil {
		return false, fmt.Errorf("postgres_session_repo_has_active_failed: %w", err)
	}

	return active, nil
}

/*
Latest returns the user's record with the furthest expiry.

Returns:
  - *Session: nil when the user has no record
  - error: Database retrieval failures
*/
func (repository *PostgresStore) Latest(context context.Context, userID string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT 1`,
		strings.Join(schema.UserSession.Columns(), ", "),
		schema.UserSession.Table, schema.UserSession.UserID, schema.UserSession.ExpiresAt,
	)

	session := &Session{}
	err := repository.db.QueryRow(context, query, userID).Scan(
		&session.Token,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_session_repo_latest_failed: %w", err)
	}

	return session, nil
}

// ExtendActive implements [Store].
func (repository *PostgresStore) ExtendActive(context context.Context, userID string, now, newExpiry time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3
		WHERE %s = $1 AND %s > $2`,
		schema.UserSession.Table, schema.UserSession.ExpiresAt,
		schema.UserSession.UserID, schema.UserSession.ExpiresAt,
	)

	tag, err := repository.db.Exec(context, query, userID, now, newExpiry)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_extend_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteByUser implements [Store].
func (repository *PostgresStore) DeleteByUser(context context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.UserSession.Table, schema.UserSession.UserID)

	tag, err := repository.db.Exec(context, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_by_user_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteExpired implements [Store].
func (repository *PostgresStore) DeleteExpired(context context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s <= $1`, schema.UserSession.Table, schema.UserSession.ExpiresAt)

	tag, err := repository.db.Exec(context, query, now)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
