// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storefront/internal/platform/constants"
	redisx "github.com/taibuivan/storefront/internal/platform/redis"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// DefaultRedisGrace keeps an expired code readable long enough to report
// CODE_EXPIRED instead of INVALID_CODE.
const DefaultRedisGrace = 10 * time.Minute

// consumeScript deletes the key only when the stored code matches ARGV[1]
// and its expiry (unix ms) is after ARGV[2].
var consumeScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local record = cjson.decode(raw)
if record.code ~= ARGV[1] then
	return 0
end
if tonumber(record.expires_at) <= tonumber(ARGV[2]) then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// missScript bumps the attempts field in place and keeps the key's TTL.
// It returns the new count, or 0 when the key is absent.
var missScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local record = cjson.decode(raw)
record.attempts = (tonumber(record.attempts) or 0) + 1
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
	redis.call("SET", KEYS[1], cjson.encode(record), "PX", ttl)
else
	redis.call("SET", KEYS[1], cjson.encode(record))
end
return record.attempts
`)

type redisRecord struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
	Attempts  int    `json:"attempts"`
}

// RedisStore implements [Store] with one JSON value per (purpose, identifier).
type RedisStore struct {
	client redis.UniversalClient
	grace  time.Duration
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed [Store].
//
// Keys outlive the code's expiry by grace so that late attempts can still be
// told apart from wrong codes.
func NewRedisStore(client redis.UniversalClient, grace time.Duration) *RedisStore {
	if grace < 0 {
		grace = 0
	}
	return &RedisStore{client: client, grace: grace, now: time.Now}
}

func (repository *RedisStore) key(identifier, purpose string) string {
	return redisx.Key(constants.RedisPrefixOTP, purpose, identifier)
}

/*
Put stores the record with a TTL covering its remaining lifetime plus grace.

Parameters:
  - context: context.Context
  - record: Record

Returns:
  - error: Serialization or connectivity failures
*/
func (repository *RedisStore) Put(context context.Context, record Record) error {
	payload, err := json.Marshal(redisRecord{
		Code:      record.Code,
		ExpiresAt: record.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("redis_otp_repo_encode_failed: %w", err)
	}

	ttl := record.ExpiresAt.Sub(repository.now()) + repository.grace
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := repository.client.Set(context, repository.key(record.Identifier, record.Purpose), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_otp_repo_put_failed: %w", err)
	}

	return nil
}

// Find implements [Store].
func (repository *RedisStore) Find(context context.Context, identifier, purpose, code string) (*Record, error) {
	raw, err := repository.client.Get(context, repository.key(identifier, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis_otp_repo_find_failed: %w", err)
	}

	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("redis_otp_repo_decode_failed: %w", err)
	}

	if !sec.ConstantTimeEqual(stored.Code, code) {
		return nil, ErrNotFound
	}

	return &Record{
		Identifier: identifier,
		Purpose:    purpose,
		Code:       stored.Code,
		ExpiresAt:  time.UnixMilli(stored.ExpiresAt).UTC(),
		Attempts:   stored.Attempts,
	}, nil
}

// Delete implements [Store].
func (repository *RedisStore) Delete(context context.Context, identifier, purpose string) error {
	if err := repository.client.Del(context, repository.key(identifier, purpose)).Err(); err != nil {
		return fmt.Errorf("redis_otp_repo_delete_failed: %w", err)
	}
	return nil
}

/*
Consume redeems the code with a server-side compare-and-delete.

Returns:
  - bool: true when this call removed the key
  - error: Connectivity failures
*/
func (repository *RedisStore) Consume(context context.Context, identifier, purpose, code string, now time.Time) (bool, error) {
	removed, err := consumeScript.Run(context, repository.client,
		[]string{repository.key(identifier, purpose)},
		code, now.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis_otp_repo_consume_failed: %w", err)
	}

	return removed == 1, nil
}

// RecordMiss implements [Store].
func (repository *RedisStore) RecordMiss(context context.Context, identifier, purpose string) (int, error) {
	attempts, err := missScript.Run(context, repository.client,
		[]string{repository.key(identifier, purpose)},
	).Int()
	if err != nil {
		return 0, fmt.Errorf("redis_otp_repo_record_miss_failed: %w", err)
	}

	return attempts, nil
}
