// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

// Handler implements the HTTP layer for the authenticated user's account.
//
// All routes expect the Authenticate and RequireAuth middlewares upstream.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account endpoints.
//
// # Endpoints
//   - GET /me          : Private profile.
//   - GET /me/activity : Recent security events (?limit=1..20).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/me", handler.getMe)
	router.Get("/me/activity", handler.getActivity)
	return router
}

/*
GET /api/v1/account/me.

Response:
  - 200: User
  - 401: Authentication required
  - 404: Account no longer exists
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GET /api/v1/account/me/activity.

Response:
  - 200: []Activity
  - 400: limit is not a number
  - 401: Authentication required
*/
func (handler *Handler) getActivity(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	limit := 0
	if raw := request.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			respond.Error(writer, request, apperr.ValidationError("limit must be a number",
				apperr.FieldError{Field: "limit", Message: "Must be a number"}))
			return
		}
	}

	entries, err := handler.accountService.RecentActivity(request.Context(), userID, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries)
}
