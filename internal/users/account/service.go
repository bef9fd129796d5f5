// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultActivityLimit bounds the audit entries returned to a user.
const DefaultActivityLimit = 20

// Service exposes read access to a user's own account and audit trail.
type Service struct {
	users    Store
	activity ActivityLog
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(users Store, activity ActivityLog, logger *slog.Logger) *Service {
	return &Service{users: users, activity: activity, logger: logger}
}

/*
GetProfile retrieves the account of the authenticated user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: The hydrated account
  - error: apperr.NotFound or storage failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

/*
RecentActivity lists the newest audit entries for the user.

Description: limit outside (0, DefaultActivityLimit] falls back to the default.
*/
func (service *Service) RecentActivity(context context.Context, userID string, limit int) ([]Activity, error) {
	if limit <= 0 || limit > DefaultActivityLimit {
		limit = DefaultActivityLimit
	}

	entries, err := service.activity.Recent(context, userID, limit)
	if err != nil {
		service.logger.ErrorContext(context, "account_activity_lookup_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("account_service_recent_activity_failed: %w", err)
	}

	if entries == nil {
		entries = []Activity{}
	}
	return entries, nil
}
