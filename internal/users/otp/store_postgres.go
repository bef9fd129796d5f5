// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/storefront/internal/platform/database/schema"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/internal/platform/postgres"
)

// PostgresStore implements [Store] on users.verificationtoken.
//
// The table is keyed by (identifier, token) where token holds the purpose
// discriminator, so one row per identifier and purpose exists at any time.
type PostgresStore struct {
	db postgres.Querier
}

// NewPostgresStore creates a new PostgreSQL implementation of the [Store].
func NewPostgresStore(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

/*
Put upserts the code for (identifier, purpose).

Parameters:
  - context: context.Context
  - record: Record

Returns:
  - error: Persistence failures
*/
func (repository *PostgresStore) Put(context context.Context, record Record) error {
	table := schema.UserVerificationToken
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (%s, %s)
		DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = 0`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.Identifier, table.Token,
		table.Code, table.Code, table.ExpiresAt, table.ExpiresAt, table.Attempts,
	)

	_, err := repository.db.Exec(context, query,
		record.Identifier,
		record.Purpose,
		record.Code,
		record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_put_failed: %w", err)
	}

	return nil
}

// Find implements [Store].
func (repository *PostgresStore) Find(context context.Context, identifier, purpose, code string) (*Record, error) {
	table := schema.UserVerificationToken
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3`,
		strings.Join(table.Columns(), ", "),
		table.Table, table.Identifier, table.Token, table.Code,
	)

	record := &Record{}
	err := repository.db.QueryRow(context, query, identifier, purpose, code).Scan(
		&record.Identifier,
		&record.Purpose,
		&record.Code,
		&record.ExpiresAt,
		&record.Attempts,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_otp_repo_find_failed: %w", err)
	}

	return record, nil
}

// Delete implements [Store].
func (repository *PostgresStore) Delete(context context.Context, identifier, purpose string) error {
	table := schema.UserVerificationToken
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, table.Table, table.Identifier, table.Token)

	if _, err := repository.db.Exec(context, query, identifier, purpose); err != nil {
		return fmt.Errorf("postgres_otp_repo_delete_failed: %w", err)
	}

	return nil
}

/*
Consume deletes the row only if the code matches and is still live.

Description: A single conditional DELETE; under concurrent calls exactly one
statement sees the row, so the code is redeemed at most once.

Returns:
  - bool: true when a row was removed
  - error: Persistence failures
*/
func (repository *PostgresStore) Consume(context context.Context, identifier, purpose, code string, now time.Time) (bool, error) {
	table := schema.UserVerificationToken
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s > $4`,
		table.Table, table.Identifier, table.Token, table.Code, table.ExpiresAt,
	)

	tag, err := repository.db.Exec(context, query, identifier, purpose, code, now)
	if err != nil {
		return false, fmt.Errorf("postgres_otp_repo_consume_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// RecordMiss implements [Store].
func (repository *PostgresStore) RecordMiss(context context.Context, identifier, purpose string) (int, error) {
	table := schema.UserVerificationToken
	query := fmt.Sprintf(`
		UPDATE %s SET %s = %s + 1
		WHERE %s = $1 AND %s = $2
		RETURNING %s`,
		table.Table, table.Attempts, table.Attempts,
		table.Identifier, table.Token,
		table.Attempts,
	)

	var attempts int
	if err := repository.db.QueryRow(context, query, identifier, purpose).Scan(&attempts); err != nil {
		if dberr.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres_otp_repo_record_miss_failed: %w", err)
	}

	return attempts, nil
}

// DeleteOlderThan removes codes that expired at or before cutoff.
func (repository *PostgresStore) DeleteOlderThan(context context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s <= $1`, schema.UserVerificationToken.Table, schema.UserVerificationToken.ExpiresAt)

	tag, err := repository.db.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_otp_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
