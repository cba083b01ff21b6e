// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/branding"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
)

const testPassword = "correct-horse-battery"

type fakeEntitlements struct {
	items []entitlement.Entitlement
	calls int
}

func (f *fakeEntitlements) ResolveEntitlements(context.Context, string) ([]entitlement.Entitlement, error) {
	f.calls++
	return f.items, nil
}

type fakeBranding struct {
	byTenant map[string]*branding.WhiteLabel
}

func (f fakeBranding) ResolveBranding(_ context.Context, tenantID string) (*branding.WhiteLabel, error) {
	return f.byTenant[tenantID], nil
}

type userLookup struct {
	dir *directory
}

func (l userLookup) GetByID(_ context.Context, id string) (*user.User, error) {
	l.dir.mu.Lock()
	defer l.dir.mu.Unlock()
	u, ok := l.dir.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fixture struct {
	dir     *directory
	jwt     *JWTManager
	ents    *fakeEntitlements
	sink    *recordingSink
	service *Service
}

func newFixture(t *testing.T, fed FederatedAuthenticator) *fixture {
	t.Helper()

	dir := newDirectory()
	cfg := testJWTConfig(t)
	jm, err := NewJWTManager(cfg)
	require.NoError(t, err)

	ents := &fakeEntitlements{items: []entitlement.Entitlement{
		{Product: entitlement.Product{ID: "p1", Name: "Recruiting", Launched: true}, IsActive: true, Actionable: true},
	}}
	sink := &recordingSink{}

	svc := NewService(Deps{
		Local:        NewCredentialAuthenticator(dir, dir, nil),
		Federated:    fed,
		Entitlements: ents,
		Branding:     fakeBranding{byTenant: map[string]*branding.WhiteLabel{}},
		Issuer:       NewSessionIssuer(jm, cfg.AccessTokenExpire, cfg.SetupTokenExpire),
		Users:        userLookup{dir: dir},
		Tenants:      dir,
		Registration: Registration{
			Tx:      fakeTransactor{},
			Tenants: func(core.DBTX) tenant.Repository { return &txTenantRepo{dir: dir} },
			Users:   func(core.DBTX) user.Repository { return &txUserRepo{dir: dir} },
		},
		Audit: sink,
	})

	return &fixture{dir: dir, jwt: jm, ents: ents, sink: sink, service: svc}
}

func (f *fixture) seedLocal(t *testing.T, status tenant.Status) (*user.User, *tenant.Tenant) {
	t.Helper()

	tn := f.dir.addTenant(tenant.New("Acme", "ops@acme.com", status))
	u, err := user.NewLocal(tn.ID, "ops@acme.com", testPassword, "Ops", user.RoleAdmin)
	require.NoError(t, err)
	f.dir.addUser(u)
	return u, tn
}

func localCreds(email, password string) Credentials {
	return Credentials{Kind: KindLocal, Email: email, Password: password}
}

func TestLocalLoginActiveTenant(t *testing.T) {
	f := newFixture(t, nil)
	u, tn := f.seedLocal(t, tenant.StatusActive)

	resp, err := f.service.Login(context.Background(), localCreds("ops@acme.com", testPassword))
	require.NoError(t, err)

	session, err := f.jwt.VerifySession(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.Tenant(), session.TenantID)
	assert.Equal(t, tn.ID, session.TenantID)
	assert.Equal(t, user.RoleAdmin, session.Role)
	assert.Equal(t, user.AuthTypeLocal, session.AuthType)
	assert.Equal(t, "active", session.TenantStatus)

	assert.Equal(t, tn.ID, resp.Tenant.ID)
	assert.Equal(t, "ops@acme.com", resp.User.Email)
	require.Len(t, resp.Entitlements, 1)
	assert.Nil(t, resp.WhiteLabel)
	assert.False(t, resp.IsNewTenant)
	assert.Equal(t, []audit.Action{audit.ActionLogin}, f.sink.actions())
}

func TestLocalLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, nil)
	f.seedLocal(t, tenant.StatusActive)

	for _, creds := range []Credentials{
		localCreds("ops@acme.com", "wrong-password"),
		localCreds("nobody@acme.com", testPassword),
	} {
		resp, err := f.service.Login(context.Background(), creds)
		assert.ErrorIs(t, err, core.ErrInvalidCredentials)
		assert.Nil(t, resp)
	}

	assert.Equal(t, []audit.Action{audit.ActionLoginRejected, audit.ActionLoginRejected}, f.sink.actions())
}

func TestLoginRejectedForInactiveTenants(t *testing.T) {
	for _, status := range []tenant.Status{tenant.StatusInactive, tenant.StatusSuspended} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, nil)
			f.seedLocal(t, status)

			resp, err := f.service.Login(context.Background(), localCreds("ops@acme.com", testPassword))
			assert.ErrorIs(t, err, core.ErrTenantInactive)
			assert.Nil(t, resp)
			assert.Zero(t, f.ents.calls)
		})
	}
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	f := newFixture(t, nil)
	u, _ := f.seedLocal(t, tenant.StatusActive)
	now := time.Now()
	f.dir.users[u.ID].DeactivatedAt = &now

	_, err := f.service.Login(context.Background(), localCreds("ops@acme.com", testPassword))
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestFederatedLoginPendingTenantGetsSetupSession(t *testing.T) {
	dir := newDirectory()
	bridge := newBridge(dir, stubIdP{identity: janeIdentity()}, &directoryProvisioner{dir: dir}, nil)

	f := newFixture(t, bridge)

	resp, err := f.service.Login(context.Background(), Credentials{Kind: KindFederated, Token: "assertion"})
	require.NoError(t, err)

	assert.True(t, resp.IsNewTenant)
	assert.Equal(t, tenant.StatusPendingSetup, resp.Tenant.Status)
	assert.Empty(t, resp.Entitlements)
	assert.NotNil(t, resp.Entitlements)
	assert.Zero(t, f.ents.calls)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), resp.ExpiresAt, 5*time.Second)

	session, err := f.jwt.VerifySession(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.True(t, session.IsPendingSetup())
	assert.Equal(t, user.AuthTypeFederated, session.AuthType)
}

func TestFederatedLoginDisabled(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Login(context.Background(), Credentials{Kind: KindFederated, Token: "assertion"})
	assert.ErrorIs(t, err, core.ErrInvalidFederatedToken)
}

func TestLoginUnknownKind(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Login(context.Background(), Credentials{Kind: "magic-link"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRegisterCreatesActiveTenantAndAdmin(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.service.Register(context.Background(), RegisterRequest{
		CompanyName: "  Initech ",
		TaxID:       "TAX-1",
		Email:       "Bill@Initech.com",
		Password:    testPassword,
		Name:        "Bill",
	})
	require.NoError(t, err)

	assert.Equal(t, "Initech", resp.Tenant.Name)
	assert.Equal(t, tenant.StatusActive, resp.Tenant.Status)
	assert.Equal(t, user.RoleAdmin, resp.User.Role)
	assert.Equal(t, "bill@initech.com", resp.User.Email)
	assert.Empty(t, resp.Entitlements)
	assert.Contains(t, f.sink.actions(), audit.ActionSignup)

	login, err := f.service.Login(context.Background(), localCreds("bill@initech.com", testPassword))
	require.NoError(t, err)
	assert.Equal(t, resp.Tenant.ID, login.Tenant.ID)
}

func TestRegisterDuplicateTaxID(t *testing.T) {
	f := newFixture(t, nil)
	req := RegisterRequest{
		CompanyName: "Initech",
		TaxID:       "TAX-1",
		Email:       "bill@initech.com",
		Password:    testPassword,
		Name:        "Bill",
	}

	_, err := f.service.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = "peter@initech.com"
	_, err = f.service.Register(context.Background(), req)
	require.Error(t, err)

	appErr := core.ToAppError(err)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	assert.Equal(t, 1, f.dir.tenantCount())
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Register(context.Background(), RegisterRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	appErr := core.ToAppError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.GreaterOrEqual(t, len(appErr.Errors), 3)
}

func TestMeRecomputesProfile(t *testing.T) {
	f := newFixture(t, nil)
	u, tn := f.seedLocal(t, tenant.StatusActive)
	session := &middleware.Session{UserID: u.ID, TenantID: tn.ID, Role: u.Role, ExpiresAt: time.Now().Add(time.Hour)}

	me, err := f.service.Me(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.User.ID)
	assert.Len(t, me.Entitlements, 1)

	f.dir.tenants[tn.ID].Status = tenant.StatusSuspended
	_, err = f.service.Me(context.Background(), session)
	assert.ErrorIs(t, err, core.ErrTenantInactive)

	_, err = f.service.Me(context.Background(), &middleware.Session{UserID: "ghost", TenantID: tn.ID})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func passthrough(next http.Handler) http.Handler { return next }

func newAuthRouter(f *fixture) chi.Router {
	r := chi.NewRouter()
	NewHandler(f.service).RegisterRoutes(r, middleware.Authenticator(f.jwt), passthrough, passthrough)
	return r
}

func TestLoginEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.seedLocal(t, tenant.StatusActive)
	router := newAuthRouter(f)

	body := `{"email":"ops@acme.com","password":"` + testPassword + `"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "ops@acme.com", resp.Data.User.Email)
	assert.Equal(t, "ops@acme.com", resp.Data.Tenant.Email)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginEndpointErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.seedLocal(t, tenant.StatusSuspended)
	router := newAuthRouter(f)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{`, http.StatusBadRequest, ""},
		{"validation", `{"email":"nope"}`, http.StatusBadRequest, ""},
		{"wrong password", `{"email":"ops@acme.com","password":"nope-nope"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"suspended tenant", `{"email":"ops@acme.com","password":"` + testPassword + `"}`, http.StatusForbidden, "TENANT_INACTIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			}
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
}

func TestMeEndpointRequiresToken(t *testing.T) {
	f := newFixture(t, nil)
	router := newAuthRouter(f)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshUpgradesSetupSession(t *testing.T) {
	f := newFixture(t, nil)
	u, tn := f.seedLocal(t, tenant.StatusPendingSetup)
	ctx := context.Background()

	setup, err := f.service.Login(ctx, localCreds("ops@acme.com", testPassword))
	require.NoError(t, err)
	assert.Empty(t, setup.Entitlements)

	session, err := f.jwt.VerifySession(ctx, setup.Token)
	require.NoError(t, err)
	require.Equal(t, "pending_setup", session.TenantStatus)

	f.dir.tenants[tn.ID].Status = tenant.StatusActive

	resp, err := f.service.Refresh(ctx, session)
	require.NoError(t, err)
	assert.Len(t, resp.Entitlements, 1)

	renewed, err := f.jwt.VerifySession(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "active", renewed.TenantStatus)
	assert.Equal(t, u.ID, renewed.UserID)
	assert.True(t, renewed.ExpiresAt.After(session.ExpiresAt))

	assert.Equal(t, audit.ActionSessionRefreshed, f.sink.actions()[len(f.sink.actions())-1])
}

func TestRefreshRejectsStaleSessions(t *testing.T) {
	f := newFixture(t, nil)
	u, tn := f.seedLocal(t, tenant.StatusActive)
	ctx := context.Background()
	session := &middleware.Session{UserID: u.ID, TenantID: tn.ID, Role: u.Role}

	_, err := f.service.Refresh(ctx, &middleware.Session{UserID: u.ID, TenantID: "other"})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	f.dir.tenants[tn.ID].Status = tenant.StatusSuspended
	_, err = f.service.Refresh(ctx, session)
	assert.ErrorIs(t, err, core.ErrTenantInactive)

	_, err = f.service.Refresh(ctx, nil)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestRefreshEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.seedLocal(t, tenant.StatusActive)
	router := newAuthRouter(f)

	login, err := f.service.Login(context.Background(), localCreds("ops@acme.com", testPassword))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.NotEqual(t, login.Token, resp.Data.Token)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
