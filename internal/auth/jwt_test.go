// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/core"
)

func testJWTConfig(t *testing.T) config.JWTConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "public.pem"),
		AccessTokenExpire: time.Hour,
		SetupTokenExpire:  30 * time.Minute,
		Issuer:            "tenant-platform-test",
		Audience:          "tenant-platform-test-api",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))
	return cfg
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(testJWTConfig(t))
	require.NoError(t, err)
	return m
}

func TestSignAndVerifySession(t *testing.T) {
	m := newTestJWTManager(t)

	token, expiresAt, err := m.SignSession(SessionClaims{
		UserID:       "user-1",
		Role:         "admin",
		AuthType:     "local",
		TenantID:     "tenant-1",
		TenantStatus: "active",
	}, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	session, err := m.VerifySession(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "admin", session.Role)
	assert.Equal(t, "local", session.AuthType)
	assert.Equal(t, "tenant-1", session.TenantID)
	assert.Equal(t, "active", session.TenantStatus)
	assert.WithinDuration(t, expiresAt, session.ExpiresAt, time.Second)
}

func TestVerifySessionExpired(t *testing.T) {
	m := newTestJWTManager(t)

	token, _, err := m.SignSession(SessionClaims{
		UserID:       "user-1",
		Role:         "admin",
		AuthType:     "local",
		TenantID:     "tenant-1",
		TenantStatus: "active",
	}, -time.Minute)
	require.NoError(t, err)

	_, err = m.VerifySession(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerifySessionRejectsForeignAndTamperedTokens(t *testing.T) {
	m := newTestJWTManager(t)
	other := newTestJWTManager(t)

	claims := SessionClaims{
		UserID:       "user-1",
		Role:         "viewer",
		AuthType:     "local",
		TenantID:     "tenant-1",
		TenantStatus: "active",
	}

	foreign, _, err := other.SignSession(claims, time.Hour)
	require.NoError(t, err)

	_, err = m.VerifySession(context.Background(), foreign)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	own, _, err := m.SignSession(claims, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(own, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = m.VerifySession(context.Background(), tampered)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = m.VerifySession(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestKeyIDStableForSameKey(t *testing.T) {
	cfg := testJWTConfig(t)

	a, err := NewJWTManager(cfg)
	require.NoError(t, err)
	b, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, a.KeyID())
	assert.Equal(t, a.KeyID(), b.KeyID())
}

func TestJWKSHandlerPublishesPublicKey(t *testing.T) {
	m := newTestJWTManager(t)

	rec := httptest.NewRecorder()
	m.JWKSHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	set, err := jwk.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	key, ok := set.Key(0)
	require.True(t, ok)

	kid, ok := key.KeyID()
	require.True(t, ok)
	assert.Equal(t, m.KeyID(), kid)
	assert.NotContains(t, rec.Body.String(), `"d"`)
}
