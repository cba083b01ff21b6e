// AngelaMos | 2026
// handler_test.go

package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

func withSession(s *middleware.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), s)))
		})
	}
}

func newTestRouter(repo Repository, s *middleware.Session) chi.Router {
	svc := NewService(repo, nil)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, withSession(s), middleware.RequireActiveUser(svc), middleware.RequireAdmin)
	return r
}

func TestGetMeEndpoint(t *testing.T) {
	photo := "https://cdn.acme.io/a.png"
	u := tenantUser("admin", "t1", "admin@acme.io", RoleAdmin)
	u.PhotoURL = &photo
	router := newTestRouter(newFakeRepository(u), &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "admin@acme.io", resp.Data.Email)
	assert.Equal(t, AuthTypeLocal, resp.Data.AuthType)
	assert.Equal(t, photo, resp.Data.PhotoURL)
}

func TestInviteEndpoint(t *testing.T) {
	repo := newFakeRepository(tenantUser("admin", "t1", "admin@acme.io", RoleAdmin))
	router := newTestRouter(repo, &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	body := `{"email":"new@acme.io","password":"long-enough-pw","name":"Nia","role":"viewer"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/",
		strings.NewReader(`{"email":"bad","password":"x","name":"","role":"owner"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var failure core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	assert.Equal(t, "VALIDATION_FAILED", failure.Code)
	assert.Contains(t, failure.Errors, "email must be a valid email address")
	assert.Contains(t, failure.Errors, "role must be one of: admin recruiter viewer")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	repo := newFakeRepository(tenantUser("viewer", "t1", "viewer@acme.io", RoleViewer))
	router := newTestRouter(repo, &middleware.Session{UserID: "viewer", Role: RoleViewer, TenantID: "t1"})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/users/", nil),
		httptest.NewRequest(http.MethodDelete, "/users/admin", nil),
		httptest.NewRequest(http.MethodPut, "/users/admin/role", strings.NewReader(`{"role":"viewer"}`)),
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, req.Method+" "+req.URL.Path)
	}
}

func TestDeactivateSelfIsForbidden(t *testing.T) {
	repo := newFakeRepository(tenantUser("admin", "t1", "admin@acme.io", RoleAdmin))
	router := newTestRouter(repo, &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/admin", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsersEndpointIsTenantScoped(t *testing.T) {
	repo := newFakeRepository(
		tenantUser("admin", "t1", "admin@acme.io", RoleAdmin),
		tenantUser("viewer", "t1", "viewer@acme.io", RoleViewer),
		tenantUser("other", "t2", "other@beta.io", RoleAdmin),
	)
	router := newTestRouter(repo, &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/?pageSize=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data core.PaginatedData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 10, resp.Data.PageSize)
	assert.NotContains(t, rec.Body.String(), "other@beta.io")
}

func TestStaleSessionUsesStoredUser(t *testing.T) {
	deactivated := tenantUser("admin", "t1", "admin@acme.io", RoleAdmin)
	at := time.Now()
	deactivated.DeactivatedAt = &at
	router := newTestRouter(newFakeRepository(deactivated),
		&middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	body := `{"email":"new@acme.io","password":"long-enough-pw","name":"Nia","role":"admin"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	demoted := newFakeRepository(tenantUser("admin", "t1", "admin@acme.io", RoleViewer))
	router = newTestRouter(demoted, &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	moved := newFakeRepository(tenantUser("admin", "t2", "admin@acme.io", RoleAdmin))
	router = newTestRouter(moved, &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateRoleUnknownUserIsNotFound(t *testing.T) {
	repo := newFakeRepository(tenantUser("admin", "t1", "admin@acme.io", RoleAdmin))
	router := newTestRouter(repo, &middleware.Session{UserID: "admin", Role: RoleAdmin, TenantID: "t1"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/foo/role", strings.NewReader(`{"role":"viewer"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
