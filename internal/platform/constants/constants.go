// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and cookie configuration.
  - Sessions: Sliding window and recovery code lifetimes.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "storefront-api"
	AppVersion = "0.3.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute

	// RecoveryRateLimitPerMinute caps password recovery calls per IP.
	RecoveryRateLimitPerMinute = 5
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "storefront.shop"

	// AccessTokenTTL bounds the lifetime of the signed credential held by the browser.
	// Server-side session records decide validity independently of it.
	AccessTokenTTL = 12 * time.Hour

	// SessionCookieName is the name of the cookie that carries the opaque session token.
	SessionCookieName = "storefront_session"

	// SessionCookiePath is the scoped path for the session cookie.
	SessionCookiePath = "/api/v1/auth"

	// SessionTokenLength is the byte length of an opaque session token.
	SessionTokenLength = 32

	// MinPasswordLength applies to every path that sets a password.
	MinPasswordLength = 8
)

// # Session Lifecycle

const (
	// SessionWindow is the sliding expiration applied on creation and on every refresh.
	SessionWindow = 30 * time.Minute

	// ResetCodeTTL is how long a password reset code stays usable.
	ResetCodeTTL = 5 * time.Minute

	// MaxResetCodeAttempts is how many wrong guesses a live reset code absorbs
	// before it is deleted.
	MaxResetCodeAttempts = 5

	// ResetCodeRetention keeps an expired code observable so it can be reported as expired.
	ResetCodeRetention = 24 * time.Hour

	// ActivityLogRetention is the default age after which audit entries are purged.
	ActivityLogRetention = 90 * 24 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	HeaderRetryAfter     = "Retry-After"
	BearerScheme         = "bearer"
	SessionExpiredReason = "session_expired"
)

// # JSON Field Identifiers

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixOTP = "otp:"
)
