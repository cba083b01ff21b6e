// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type fakeVerifier struct {
	sessions map[string]*Session
	err      error
}

func (f *fakeVerifier) VerifySession(_ context.Context, token string) (*Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, fmt.Errorf("verify: %w", core.ErrTokenInvalid)
	}
	return s, nil
}

type fakeStatusChecker struct {
	mu       sync.Mutex
	statuses map[string]string
	err      error
	calls    int
}

func (f *fakeStatusChecker) CurrentStatus(_ context.Context, tenantID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return "", f.err
	}
	status, ok := f.statuses[tenantID]
	if !ok {
		return "", fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	return status, nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	core.OK(w, map[string]string{"user": GetUserID(r.Context())})
})

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestAuthenticatorLoadsSession(t *testing.T) {
	verifier := &fakeVerifier{sessions: map[string]*Session{
		"good": {UserID: "u1", Role: "admin", TenantID: "t1", TenantStatus: "active"},
	}}

	var seen *Session
	h := Authenticator(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSession(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/tenant", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "t1", seen.TenantID)
}

func TestAuthenticatorRejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
		err    error
		code   string
	}{
		{"missing header", "", nil, "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", nil, "UNAUTHORIZED"},
		{"unknown token", "Bearer nope", nil, "TOKEN_INVALID"},
		{"expired", "Bearer good", fmt.Errorf("verify: %w", core.ErrTokenExpired), "TOKEN_EXPIRED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := &fakeVerifier{
				sessions: map[string]*Session{"good": {UserID: "u1"}},
				err:      tc.err,
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			Authenticator(verifier)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.code, decodeCode(t, rec))
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("admin")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithSession(req.Context(), &Session{UserID: "u1", Role: "viewer"})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithSession(req.Context(), &Session{UserID: "u1", Role: "admin"})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireActiveTenant(t *testing.T) {
	checker := &fakeStatusChecker{statuses: map[string]string{
		"active":    "active",
		"suspended": "suspended",
		"pending":   "pending_setup",
	}}

	cases := []struct {
		name    string
		session *Session
		status  int
		code    string
	}{
		{"active tenant", &Session{TenantID: "active", TenantStatus: "active"}, http.StatusOK, ""},
		{"suspended after issue", &Session{TenantID: "suspended", TenantStatus: "active"}, http.StatusForbidden, "TENANT_INACTIVE"},
		{"setup scoped session", &Session{TenantID: "pending", TenantStatus: "pending_setup"}, http.StatusForbidden, "TENANT_SETUP_REQUIRED"},
		{"unknown tenant", &Session{TenantID: "gone", TenantStatus: "active"}, http.StatusForbidden, "TENANT_INACTIVE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithSession(req.Context(), tc.session))
			rec := httptest.NewRecorder()

			RequireActiveTenant(checker)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, decodeCode(t, rec))
			}
		})
	}
}

func TestAllowPendingSetup(t *testing.T) {
	checker := &fakeStatusChecker{statuses: map[string]string{
		"pending":  "pending_setup",
		"inactive": "inactive",
	}}
	h := AllowPendingSetup(checker)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/tenant/setup", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithSession(req.Context(),
		&Session{TenantID: "pending", TenantStatus: "pending_setup"})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithSession(req.Context(),
		&Session{TenantID: "inactive", TenantStatus: "active"})))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireActiveTenantStoreFailure(t *testing.T) {
	checker := &fakeStatusChecker{err: errors.New("db down")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), &Session{TenantID: "t1", TenantStatus: "active"}))
	rec := httptest.NewRecorder()

	RequireActiveTenant(checker)(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type roleCheckerFunc func(ctx context.Context, tenantID, userID string) (string, error)

func (f roleCheckerFunc) CurrentRole(ctx context.Context, tenantID, userID string) (string, error) {
	return f(ctx, tenantID, userID)
}

func TestRequireActiveUser(t *testing.T) {
	stored := map[string]string{"t1/admin": "admin", "t1/demoted": "viewer"}
	checker := roleCheckerFunc(func(_ context.Context, tenantID, userID string) (string, error) {
		if tenantID == "t9" {
			return "", errors.New("db down")
		}
		role, ok := stored[tenantID+"/"+userID]
		if !ok {
			return "", fmt.Errorf("get user: %w", core.ErrNotFound)
		}
		return role, nil
	})
	h := RequireActiveUser(checker)(RequireAdmin(okHandler))

	cases := []struct {
		name    string
		session *Session
		status  int
		code    string
	}{
		{"stored admin", &Session{UserID: "admin", TenantID: "t1", Role: "admin"}, http.StatusOK, ""},
		{"demoted since issue", &Session{UserID: "demoted", TenantID: "t1", Role: "admin"}, http.StatusForbidden, "FORBIDDEN"},
		{"deactivated or removed", &Session{UserID: "gone", TenantID: "t1", Role: "admin"}, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"other tenant", &Session{UserID: "admin", TenantID: "t2", Role: "admin"}, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"store failure", &Session{UserID: "admin", TenantID: "t9", Role: "admin"}, http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithSession(req.Context(), tc.session))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, decodeCode(t, rec))
			}
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireOperatorKey(t *testing.T) {
	h := RequireOperatorKey("s3cret-operator-key")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Operator-Key", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Operator-Key", "s3cret-operator-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireOperatorKey("")(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
