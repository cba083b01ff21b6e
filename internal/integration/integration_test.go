// AngelaMos | 2026
// integration_test.go

package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

type fakeRepository struct {
	mu      sync.Mutex
	rows    []Credential
	failAdd bool
}

func (f *fakeRepository) Insert(_ context.Context, c *Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd {
		return fmt.Errorf("insert integration credentials: %w", core.ErrConflict)
	}
	for _, row := range f.rows {
		if row.IsActive && row.TenantID == c.TenantID && row.Provider == c.Provider {
			return fmt.Errorf("insert integration credentials: %w", core.ErrConflict)
		}
	}
	c.IsActive = true
	c.CreatedAt = time.Now()
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeRepository) Retire(_ context.Context, tenantID, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].TenantID == tenantID && f.rows[i].Provider == provider {
			f.rows[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeRepository) GetActive(_ context.Context, tenantID, provider string) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.IsActive && row.TenantID == tenantID && row.Provider == provider {
			cp := row
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepository) ListActive(_ context.Context, tenantID string) ([]Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Credential
	for _, row := range f.rows {
		if row.IsActive && row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type recordingSink struct {
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, ev audit.Event) {
	s.events = append(s.events, ev)
}

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()

	key, err := GenerateKey()
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func newTestService(t *testing.T, repo *fakeRepository, sink audit.Sink) *Service {
	t.Helper()

	return NewService(
		fakeTransactor{},
		func(core.DBTX) Repository { return repo },
		repo,
		newTestSealer(t),
		sink,
		nil,
	)
}

func TestSealerRoundTripAndBinding(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Seal([]byte(`{"apiKey":"k"}`), "t1", "greenhouse")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "apiKey")

	plain, err := s.Open(sealed, "t1", "greenhouse")
	require.NoError(t, err)
	assert.JSONEq(t, `{"apiKey":"k"}`, string(plain))

	_, err = s.Open(sealed, "t2", "greenhouse")
	assert.ErrorIs(t, err, ErrSealed)

	_, err = newTestSealer(t).Open(sealed, "t1", "greenhouse")
	assert.ErrorIs(t, err, ErrSealed)

	_, err = s.Open([]byte("short"), "t1", "greenhouse")
	assert.ErrorIs(t, err, ErrSealed)
}

func TestNewSealerRejectsBadKeys(t *testing.T) {
	_, err := NewSealer("not base64!")
	assert.Error(t, err)

	_, err = NewSealer("c2hvcnQ=")
	assert.Error(t, err)
}

func TestRotateKeepsOneActiveSet(t *testing.T) {
	repo := &fakeRepository{}
	sink := &recordingSink{}
	svc := newTestService(t, repo, sink)
	ctx := context.Background()

	_, err := svc.Rotate(ctx, "admin", "t1", "Greenhouse", RotateRequest{Secrets: map[string]string{"apiKey": "one"}})
	require.NoError(t, err)

	sum, err := svc.Rotate(ctx, "admin", "t1", "greenhouse", RotateRequest{
		Secrets: map[string]string{"apiKey": "two", "webhookSecret": "w"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"apiKey", "webhookSecret"}, sum.Keys)

	secrets, err := svc.GetActive(ctx, "t1", "greenhouse")
	require.NoError(t, err)
	assert.Equal(t, "two", secrets["apiKey"])

	active, err := repo.ListActive(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Len(t, repo.rows, 2)

	require.Len(t, sink.events, 2)
	assert.Equal(t, audit.ActionIntegrationRotated, sink.events[1].Action)
	assert.NotContains(t, fmt.Sprint(sink.events[1].Detail), "two")
}

func TestRotateValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, nil)

	_, err := svc.Rotate(context.Background(), "admin", "t1", "bad provider!", RotateRequest{
		Secrets: map[string]string{"k": "v"},
	})
	assert.ErrorIs(t, err, core.ErrValidationFailed)

	_, err = svc.Rotate(context.Background(), "admin", "t1", "greenhouse", RotateRequest{})
	assert.ErrorIs(t, err, core.ErrValidationFailed)
}

func TestRotateConflictSurfaces(t *testing.T) {
	svc := newTestService(t, &fakeRepository{failAdd: true}, nil)

	_, err := svc.Rotate(context.Background(), "admin", "t1", "greenhouse", RotateRequest{
		Secrets: map[string]string{"k": "v"},
	})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestGetActiveNotConfigured(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, nil)

	_, err := svc.GetActive(context.Background(), "t1", "greenhouse")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIntegrationEndpoints(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, nil)
	session := &middleware.Session{UserID: "admin", Role: "admin", TenantID: "t1"}

	withSession := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), session)))
		})
	}
	passthrough := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, withSession, passthrough, middleware.RequireAdmin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/integrations/greenhouse",
		strings.NewReader(`{"secrets":{"apiKey":"s3cret"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "s3cret")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/integrations/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"provider":"greenhouse"`)
	assert.Contains(t, rec.Body.String(), `"apiKey"`)
	assert.NotContains(t, rec.Body.String(), "s3cret")

	session.Role = "viewer"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/integrations/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
