// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// This layer handles transport concerns only: decoding, cookies and status
// codes. Domain rules are enforced by [Service].
type Handler struct {
	authService     *Service
	recoveryLimiter *middleware.IPRateLimiter
}

// NewHandler constructs a new [Handler].
//
// recoveryLimiter throttles the three recovery endpoints per client IP; nil
// disables the extra limit.
func NewHandler(service *Service, recoveryLimiter *middleware.IPRateLimiter) *Handler {
	return &Handler{authService: service, recoveryLimiter: recoveryLimiter}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register          : Creates a customer account.
//   - POST /login             : Opens a session, returns a JWT and sets the session cookie.
//   - POST /logout            : Revokes every session of the caller.
//   - POST /change-password   : Rotates the caller's password.
//   - POST /forgot-password   : Issues a reset code.
//   - POST /verify-reset-code : Checks a reset code without consuming it.
//   - POST /reset-password    : Redeems a reset code and sets a new password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	// Recovery endpoints
	router.Group(func(r chi.Router) {
		if handler.recoveryLimiter != nil {
			r.Use(handler.recoveryLimiter.Handler)
		}
		r.Post("/forgot-password", handler.forgotPassword)
		r.Post("/verify-reset-code", handler.verifyResetCode)
		r.Post("/reset-password", handler.resetPassword)
	})

	// Protected endpoints. Logout only needs the JWT so a client whose
	// session already lapsed can still clear its cookie.
	router.With(middleware.RequireAuth).Post("/logout", handler.logout)
	router.With(middleware.RequireSession(handler.authService.sessions)).Post("/change-password", handler.changePassword)

	return router
}

// # Request Payloads

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyResetCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required"`
}

/*
Register handles the creation of a new customer account.

POST /api/v1/auth/register

Response:
  - 201: User
  - 400: Validation failure
  - 409: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Returns the access token in the body and the opaque session
token as an HttpOnly cookie.

Response:
  - 200: {access_token, token_type, expires_in, user}
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    result.SessionToken,
		Path:     constants.SessionCookiePath,
		Expires:  result.SessionExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, map[string]any{
		FieldAccessToken: result.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(constants.AccessTokenTTL / time.Second),
		FieldUser:        result.User,
	})
}

/*
Logout terminates the caller's sessions.

POST /api/v1/auth/logout

Response:
  - 204: Sessions removed and cookie cleared
  - 401: Authentication required
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
ChangePassword rotates the caller's password.

POST /api/v1/auth/change-password

Response:
  - 200: {message}
  - 400: Validation failure
  - 401: Current password incorrect
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password updated successfully"})
}

// # Password Recovery

/*
ForgotPassword starts the recovery flow.

POST /api/v1/auth/forgot-password

Response:
  - 200: ResetTicket (same shape whether or not the email is registered)
  - 400: Invalid email
  - 429: Too many recovery attempts
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.authService.RequestPasswordReset(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, ticket)
}

/*
VerifyResetCode checks a code before the user picks a new password.

POST /api/v1/auth/verify-reset-code

Response:
  - 200: {message}
  - 400: VALIDATION_ERROR, INVALID_CODE or CODE_EXPIRED
*/
func (handler *Handler) verifyResetCode(writer http.ResponseWriter, request *http.Request) {
	var input verifyResetCodeRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.VerifyResetCode(request.Context(), input.Email, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Code verified"})
}

/*
ResetPassword completes the recovery flow.

POST /api/v1/auth/reset-password

Response:
  - 200: {message}
  - 400: VALIDATION_ERROR, INVALID_CODE or CODE_EXPIRED
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Email, input.Code, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password has been reset. Please sign in again."})
}
