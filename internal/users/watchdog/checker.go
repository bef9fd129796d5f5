// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package watchdog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ValidatePath is the server route answering session validity.
const ValidatePath = "/api/v1/auth/session/validate"

// HTTPChecker implements [Checker] against the validation endpoint.
type HTTPChecker struct {
	client *http.Client
	url    string
	token  string
}

// NewHTTPChecker builds a checker for baseURL using token as bearer credential.
// A nil client gets a 10 second timeout.
func NewHTTPChecker(baseURL, token string, client *http.Client) *HTTPChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPChecker{
		client: client,
		url:    strings.TrimRight(baseURL, "/") + ValidatePath,
		token:  token,
	}
}

/*
Check calls GET /api/v1/auth/session/validate.

Returns:
  - bool: true for any 2xx, false for every other status
  - error: only when no HTTP response was received
*/
func (checker *HTTPChecker) Check(ctx context.Context) (bool, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, checker.url, nil)
	if err != nil {
		return false, fmt.Errorf("watchdog: build request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+checker.token)
	request.Header.Set("Accept", "application/json")

	response, err := checker.client.Do(request)
	if err != nil {
		return false, fmt.Errorf("watchdog: validate request failed: %w", err)
	}
	defer response.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))

	return response.StatusCode >= 200 && response.StatusCode < 300, nil
}
