// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/storefront/internal/platform/apperr"
)

/*
TestAppError_StatusMapping checks that constructors fix the rendered status.
*/
func TestAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"not found", apperr.NotFound("Account"), http.StatusNotFound, apperr.CodeNotFound},
		{"unauthorized", apperr.Unauthorized("no"), http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"validation", apperr.ValidationError("bad"), http.StatusBadRequest, apperr.CodeValidation},
		{"domain", apperr.BadRequest("CODE_EXPIRED", "expired"), http.StatusBadRequest, "CODE_EXPIRED"},
		{"internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

/*
TestAppError_IsByCode verifies sentinel matching through wrapping.
*/
func TestAppError_IsByCode(t *testing.T) {
	sentinel := apperr.BadRequest("INVALID_CODE", "Invalid code")
	wrapped := fmt.Errorf("verify: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, apperr.HasCode(wrapped, "INVALID_CODE"))
	assert.False(t, errors.Is(wrapped, apperr.NotFound("x")))
}

/*
TestAppError_InternalHidesCause keeps the cause out of the client message.
*/
func TestAppError_InternalHidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := apperr.Internal(cause)

	assert.NotContains(t, err.Error(), "relation")
	assert.ErrorIs(t, err, cause)
}
