// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/sec"
)

func newTokenService(t *testing.T, issuer string) *sec.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return sec.NewTokenServiceFromKeys(key, &key.PublicKey, issuer)
}

/*
TestTokenService_RoundTrip verifies the custom claims including the session id.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, "storefront.shop")

	token, err := service.GenerateAccessToken("u-1", "alice", "customer", "sid-9", time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "sid-9", claims.SessionID)
}

/*
TestTokenService_RejectsForeignKey refuses tokens signed by another key.
*/
func TestTokenService_RejectsForeignKey(t *testing.T) {
	issuer := newTokenService(t, "storefront.shop")
	verifier := newTokenService(t, "storefront.shop")

	token, err := issuer.GenerateAccessToken("u-1", "alice", "customer", "", time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsExpired refuses tokens past their exp claim.
*/
func TestTokenService_RejectsExpired(t *testing.T) {
	service := newTokenService(t, "storefront.shop")

	token, err := service.GenerateAccessToken("u-1", "alice", "customer", "", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestPasswordHash checks the bcrypt round trip.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("wrong horse", hash))
}

/*
TestSecureToken verifies length, uniqueness and hashing.
*/
func TestSecureToken(t *testing.T) {
	a, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.Len(t, sec.HashToken(a), 64)
	assert.Equal(t, sec.HashToken(a), sec.HashToken(a))
	assert.True(t, sec.ConstantTimeEqual(a, a))
	assert.False(t, sec.ConstantTimeEqual(a, b))
}
