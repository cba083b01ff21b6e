// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAppErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{ErrInvalidFederatedToken, http.StatusUnauthorized, "INVALID_FEDERATED_TOKEN"},
		{ErrConflictingAccount, http.StatusConflict, "CONFLICTING_ACCOUNT"},
		{ErrTenantInactive, http.StatusForbidden, "TENANT_INACTIVE"},
		{ErrInvalidTenantState, http.StatusConflict, "INVALID_TENANT_STATE"},
		{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{ErrConflict, http.StatusConflict, "CONFLICT"},
		{ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			wrapped := fmt.Errorf("layer: %w", tc.err)
			appErr := ToAppError(wrapped)

			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, tc.code, appErr.Code)
			assert.ErrorIs(t, appErr, tc.err)
		})
	}
}

func TestValidationErrorCollectsMessages(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("name is required")
	verr.Add("taxId is required")

	err := verr.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)

	appErr := ToAppError(fmt.Errorf("complete setup: %w", err))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, []string{"name is required", "taxId is required"}, appErr.Errors)
}

func TestJSONErrorWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, fmt.Errorf("login: %w", ErrTenantInactive))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "TENANT_INACTIVE", body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestJSONErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("pq: connection refused to 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestPaginatedComputesTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []string{"a", "b"}, 1, 2, 5)

	var body struct {
		Data PaginatedData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.TotalPages)
	assert.Equal(t, 5, body.Data.Total)
}

func TestValidationMessagesUseJSONNames(t *testing.T) {
	type req struct {
		ContactEmail string `json:"contactEmail" validate:"required,email"`
		Color        string `json:"primaryColor" validate:"required,hexcolor"`
	}

	err := NewValidator().Struct(req{ContactEmail: "nope", Color: "blue"})
	require.Error(t, err)

	msgs := ValidationMessages(err)
	assert.Contains(t, msgs, "contactEmail must be a valid email address")
	assert.Contains(t, msgs, "primaryColor must be a hex color")
}

func TestValidIDs(t *testing.T) {
	id := "7d7c1f0e-3b7a-4b8e-9d6a-0f3c2a1b4e55"

	assert.True(t, ValidIDs(id))
	assert.True(t, ValidIDs(id, id))
	assert.True(t, ValidIDs())
	assert.False(t, ValidIDs("foo"))
	assert.False(t, ValidIDs(id, ""))
	assert.False(t, ValidIDs(id, "1; DROP TABLE tenants"))
}
