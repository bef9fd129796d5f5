// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements credential use cases for the storefront.

It covers registration, login (server-side session plus RS256 access token),
logout, password change and the three-step password recovery flow:

	RequestPasswordReset -> VerifyResetCode -> ResetPassword

Architecture:

  - Service: Orchestrates account, session, OTP and notification collaborators.
  - Handler: JSON delivery under /api/v1/auth.

Recovery never reveals whether an email is registered, and a reset code is
redeemed through a single atomic conditional delete so it cannot be used twice.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/metrics"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/platform/validate"
	"github.com/taibuivan/storefront/internal/users/account"
	"github.com/taibuivan/storefront/internal/users/notify"
	"github.com/taibuivan/storefront/internal/users/otp"
	"github.com/taibuivan/storefront/internal/users/session"
)

// # Contracts & Types

// TokenProvider defines the contract for generating access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT bound to the server-side session sessionID.
	GenerateAccessToken(userID, username, role, sessionID string, timeToLive time.Duration) (string, error)
}

// Service implements user authentication use cases.
type Service struct {
	users    account.Store
	activity account.ActivityLog
	sessions *session.Manager
	codes    otp.Store
	notifier notify.Notifier
	tokens   TokenProvider
	logger   *slog.Logger

	codeTTL      time.Duration
	exposeCode   bool
	now          func() time.Time
	generateCode func() (string, error)
}

// Option customises a [Service].
type Option func(*Service)

// WithCodeTTL overrides the reset code lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(service *Service) {
		if ttl > 0 {
			service.codeTTL = ttl
		}
	}
}

// WithExposedCode returns the generated code in the forgot-password response.
// Config refuses to enable this in production.
func WithExposedCode(expose bool) Option {
	return func(service *Service) { service.exposeCode = expose }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// WithCodeGenerator replaces [otp.GenerateCode].
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(service *Service) { service.generateCode = generate }
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	users account.Store,
	activity account.ActivityLog,
	sessions *session.Manager,
	codes otp.Store,
	notifier notify.Notifier,
	tokens TokenProvider,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	service := &Service{
		users:        users,
		activity:     activity,
		sessions:     sessions,
		codes:        codes,
		notifier:     notifier,
		tokens:       tokens,
		logger:       logger,
		codeTTL:      constants.ResetCodeTTL,
		now:          time.Now,
		generateCode: otp.GenerateCode,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new customer.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

/*
Register validates, hashes, and persists a new customer account.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *account.User: Created entity
  - error: Validation, Conflict (email taken) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*account.User, error) {
	email := account.NormalizeEmail(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 50)
	passwordPolicy(validator, FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	user := &account.User{
		Email:        email,
		Username:     input.Username,
		PasswordHash: hashedPassword,
		Role:         sec.RoleCustomer,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, service.persistence(context, "auth_register_failed", err)
	}

	service.audit(context, user.ID, account.ActionRegister)

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a successfully established session.
type LoginResult struct {
	AccessToken      string
	SessionToken     string
	SessionExpiresAt time.Time
	User             *account.User
}

/*
Login verifies credentials and opens a server-side session.

Description: The raw session token goes to the client cookie; the store only
keeps its hash, which is also embedded in the access token as the sid claim.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Transport-ready credentials
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	email := account.NormalizeEmail(input.Email)

	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, service.persistence(context, "auth_login_lookup_failed", err)
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	sessionToken, err := sec.GenerateSecureToken(constants.SessionTokenLength)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_session_token_failed: %w", err))
	}

	// The manager already logged the fault; the access token still works and
	// the watchdog will retire it on its next check.
	if err := service.sessions.CreateOrRefresh(context, user.ID, sessionToken); err != nil {
		service.logger.WarnContext(context, "auth_login_session_not_recorded", slog.String("user_id", user.ID))
	}

	accessToken, err := service.tokens.GenerateAccessToken(
		user.ID, user.Username, string(user.Role), sec.HashToken(sessionToken), constants.AccessTokenTTL,
	)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_token_generation_failed: %w", err))
	}

	service.audit(context, user.ID, account.ActionLogin)

	return &LoginResult{
		AccessToken:      accessToken,
		SessionToken:     sessionToken,
		SessionExpiresAt: service.now().Add(service.sessions.Window()),
		User:             user,
	}, nil
}

/*
Logout removes every server-side session of the user.

Returns:
  - error: apperr.Internal on storage failure
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.sessions.Invalidate(context, userID); err != nil {
		return err
	}

	service.audit(context, userID, account.ActionLogout)
	return nil
}

/*
ChangePassword lets an authenticated user rotate their password.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Validation, Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {
	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, currentPassword)
	passwordPolicy(validator, FieldNewPassword, newPassword)

	if err := validator.Err(); err != nil {
		return err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return service.persistence(context, "auth_change_password_lookup_failed", err)
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_change_password_hash_failed: %w", err))
	}

	if err := service.users.UpdatePassword(context, userID, hashedPassword); err != nil {
		return service.persistence(context, "auth_change_password_update_failed", err)
	}

	service.audit(context, userID, account.ActionPasswordChange)
	return nil
}

// # Password Recovery

// ResetTicket is the success-shaped answer to a forgot-password request.
type ResetTicket struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

/*
RequestPasswordReset issues a one-time code for the account behind email.

Description: Unknown emails get the same ticket as known ones and leave no
record behind. For known emails any previous code is overwritten. The code is
handed to the notifier; it only appears in the ticket when exposure is enabled.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *ResetTicket: Generic success message
  - error: Validation or storage failures
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (*ResetTicket, error) {
	email = account.NormalizeEmail(email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	ticket := &ResetTicket{Message: resetRequestedMessage}

	if _, err := service.users.FindByEmail(context, email); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.logger.DebugContext(context, "password_reset_unknown_email")
			return ticket, nil
		}
		return nil, service.persistence(context, "password_reset_lookup_failed", err)
	}

	code, err := service.generateCode()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	expiresAt := service.now().Add(service.codeTTL)
	record := otp.Record{
		Identifier: email,
		Purpose:    otp.PurposePasswordReset,
		Code:       code,
		ExpiresAt:  expiresAt,
	}

	if err := service.codes.Put(context, record); err != nil {
		return nil, service.persistence(context, "password_reset_store_failed", err)
	}

	metrics.ResetCodesIssued.Inc()

	if err := service.notifier.SendResetCode(context, email, code, expiresAt); err != nil {
		service.logger.ErrorContext(context, "password_reset_delivery_failed", slog.String("error", err.Error()))
	}

	if service.exposeCode {
		ticket.Code = code
	}

	return ticket, nil
}

/*
VerifyResetCode checks a code without consuming it.

Description: An expired match is deleted on detection. A successful check
leaves the record in place so the final reset step can redeem it. Every wrong
guess counts against the live code, which is deleted after
[constants.MaxResetCodeAttempts] misses.

Returns:
  - error: Validation, ErrInvalidCode, ErrCodeExpired or storage failures
*/
func (service *Service) VerifyResetCode(context context.Context, email, code string) error {
	email = account.NormalizeEmail(email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		Digits(FieldCode, code, otp.CodeLength)
	if err := validator.Err(); err != nil {
		return err
	}

	record, err := service.codes.Find(context, email, otp.PurposePasswordReset, code)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			metrics.ResetCodeChecks.WithLabelValues("invalid").Inc()
			if err := service.recordMiss(context, email); err != nil {
				return err
			}
			return ErrInvalidCode
		}
		return service.persistence(context, "password_reset_verify_failed", err)
	}

	if record.ExpiredAt(service.now()) {
		if err := service.codes.Delete(context, email, otp.PurposePasswordReset); err != nil {
			service.logger.WarnContext(context, "password_reset_expired_cleanup_failed", slog.String("error", err.Error()))
		}
		metrics.ResetCodeChecks.WithLabelValues("expired").Inc()
		return ErrCodeExpired
	}

	metrics.ResetCodeChecks.WithLabelValues("valid").Inc()
	return nil
}

/*
ResetPassword redeems the code and replaces the account password.

Description: Re-runs [Service.VerifyResetCode], then consumes the code with an
atomic conditional delete before touching the account, so two concurrent
resets with the same code cannot both succeed. Every session of the user is
revoked afterwards and a password_reset audit entry is written.

Parameters:
  - context: context.Context
  - email: string
  - code: string
  - newPassword: string

Returns:
  - error: Validation, ErrInvalidCode, ErrCodeExpired or storage failures
*/
func (service *Service) ResetPassword(context context.Context, email, code, newPassword string) error {
	validator := &validate.Validator{}
	passwordPolicy(validator, FieldPassword, newPassword)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.VerifyResetCode(context, email, code); err != nil {
		return err
	}

	email = account.NormalizeEmail(email)

	consumed, err := service.codes.Consume(context, email, otp.PurposePasswordReset, code, service.now())
	if err != nil {
		return service.persistence(context, "password_reset_consume_failed", err)
	}
	if !consumed {
		return ErrInvalidCode
	}

	// The code is spent; an account that vanished meanwhile must still not
	// surface as NOT_FOUND on the recovery path.
	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.logger.WarnContext(context, "password_reset_account_missing")
			return ErrInvalidCode
		}
		return service.persistence(context, "password_reset_account_lookup_failed", err)
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_reset_password_hash_failed: %w", err))
	}

	if err := service.users.UpdatePassword(context, user.ID, hashedPassword); err != nil {
		return service.persistence(context, "password_reset_update_failed", err)
	}

	if err := service.sessions.Invalidate(context, user.ID); err != nil {
		service.logger.WarnContext(context, "password_reset_session_revoke_failed", slog.String("user_id", user.ID))
	}

	service.audit(context, user.ID, account.ActionPasswordReset)
	metrics.PasswordResets.Inc()

	service.logger.InfoContext(context, "password_reset_completed", slog.String("user_id", user.ID))
	return nil
}

// # Helpers

func passwordPolicy(validator *validate.Validator, field, password string) {
	validator.Required(field, password).
		MinLen(field, password, constants.MinPasswordLength).
		MaxLen(field, password, MaxPasswordLength)
}

// recordMiss counts a wrong guess and burns the live code once the budget is spent.
func (service *Service) recordMiss(context context.Context, email string) error {
	misses, err := service.codes.RecordMiss(context, email, otp.PurposePasswordReset)
	if err != nil {
		return service.persistence(context, "password_reset_record_miss_failed", err)
	}

	if misses < constants.MaxResetCodeAttempts {
		return nil
	}

	if err := service.codes.Delete(context, email, otp.PurposePasswordReset); err != nil {
		return service.persistence(context, "password_reset_burn_failed", err)
	}

	metrics.ResetCodeChecks.WithLabelValues("exhausted").Inc()
	service.logger.WarnContext(context, "password_reset_attempts_exhausted", slog.Int("misses", misses))
	return nil
}

// audit appends an activity entry. Failures are logged, never returned.
func (service *Service) audit(context context.Context, userID, action string) {
	entry := account.Activity{
		UserID:    userID,
		Action:    action,
		IPAddress: ctxutil.GetClientIP(context),
		CreatedAt: service.now(),
	}

	if err := service.activity.Record(context, entry); err != nil {
		service.logger.ErrorContext(context, "auth_audit_record_failed",
			slog.String("user_id", userID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// persistence passes client-facing AppErrors through and turns anything else
// into a logged, opaque internal error.
func (service *Service) persistence(context context.Context, event string, err error) error {
	if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus < 500 {
		return appErr
	}

	service.logger.ErrorContext(context, event, slog.String("error", err.Error()))
	return apperr.Internal(fmt.Errorf("%s: %w", event, err))
}
