// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/storefront/internal/platform/apperr"

// # Field Identifiers

// Field names used in validation details and response payloads.
const (
	FieldEmail           = "email"
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldCode            = "code"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)

// # Password Policy

// MaxPasswordLength is the bcrypt input limit.
const MaxPasswordLength = 72

// # Recovery Errors

// Error codes the client branches on during password recovery.
const (
	CodeInvalidCode = "INVALID_CODE"
	CodeCodeExpired = "CODE_EXPIRED"
)

var (
	// ErrInvalidCode means no live code matches the email and digits supplied.
	ErrInvalidCode = apperr.BadRequest(CodeInvalidCode, "Invalid or incorrect code")

	// ErrCodeExpired means the code matched but its window has passed.
	ErrCodeExpired = apperr.BadRequest(CodeCodeExpired, "Code has expired, please request a new one")
)

// resetRequestedMessage is returned for every well-formed forgot-password call.
const resetRequestedMessage = "If an account exists for this email, a reset code has been sent."
