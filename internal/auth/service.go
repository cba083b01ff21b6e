// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/branding"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
)

// CredentialKind selects the login strategy. The set is closed: a new
// provider is a new kind plus a case in Login.
type CredentialKind string

const (
	KindLocal     CredentialKind = "local"
	KindFederated CredentialKind = "federated"
)

type Credentials struct {
	Kind     CredentialKind
	Email    string
	Password string
	Token    string
}

type LocalAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, *tenant.Tenant, error)
}

type FederatedAuthenticator interface {
	AuthenticateFederated(ctx context.Context, token string) (*user.User, *tenant.Tenant, bool, error)
}

type EntitlementSource interface {
	ResolveEntitlements(ctx context.Context, tenantID string) ([]entitlement.Entitlement, error)
}

type BrandingSource interface {
	ResolveBranding(ctx context.Context, tenantID string) (*branding.WhiteLabel, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Registration persists a signup. Both repositories are rebuilt on the
// transaction handle.
type Registration struct {
	Tx      core.Transactor
	Tenants func(core.DBTX) tenant.Repository
	Users   func(core.DBTX) user.Repository
}

type Deps struct {
	Local        LocalAuthenticator
	Federated    FederatedAuthenticator
	Entitlements EntitlementSource
	Branding     BrandingSource
	Issuer       *SessionIssuer
	Users        UserLoader
	Tenants      TenantLoader
	Registration Registration
	Audit        audit.Sink
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Service orchestrates login: authenticate, lifecycle guard, entitlements,
// branding, issue.
type Service struct {
	deps      Deps
	validator *validator.Validate
}

func NewService(deps Deps) *Service {
	if deps.Audit == nil {
		deps.Audit = audit.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, validator: core.NewValidator()}
}

func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.login", core.AttrLoginMethod.String(string(creds.Kind)))
	resp, err := s.login(ctx, creds)
	if resp != nil {
		span.SetAttributes(core.AttrUserID.String(resp.User.ID), core.AttrTenantID.String(resp.Tenant.ID))
	}
	core.EndSpan(span, err)
	return resp, err
}

func (s *Service) login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var (
		u     *user.User
		t     *tenant.Tenant
		isNew bool
		err   error
	)

	switch creds.Kind {
	case KindLocal:
		u, t, err = s.deps.Local.Authenticate(ctx, creds.Email, creds.Password)
	case KindFederated:
		if s.deps.Federated == nil {
			err = fmt.Errorf("federated login disabled: %w", core.ErrInvalidFederatedToken)
			break
		}
		u, t, isNew, err = s.deps.Federated.AuthenticateFederated(ctx, creds.Token)
	default:
		return nil, fmt.Errorf("login: unknown credential kind %q: %w", creds.Kind, core.ErrInvalidInput)
	}
	if err != nil {
		s.rejected(ctx, creds, nil, nil, err)
		return nil, err
	}

	if err := tenant.RequireLoginAllowed(t); err != nil {
		s.rejected(ctx, creds, u, t, err)
		return nil, err
	}

	ents, wl, err := s.loginContext(ctx, t)
	if err != nil {
		s.deps.Metrics.ObserveLogin(string(creds.Kind), metrics.OutcomeError)
		return nil, err
	}

	resp, err := s.deps.Issuer.IssueSession(u, t, ents, wl)
	if err != nil {
		s.deps.Metrics.ObserveLogin(string(creds.Kind), metrics.OutcomeError)
		return nil, err
	}
	resp.IsNewTenant = isNew

	s.deps.Metrics.ObserveLogin(string(creds.Kind), metrics.OutcomeSuccess)
	s.deps.Audit.Record(ctx, audit.Event{
		ActorID:  u.ID,
		TenantID: t.ID,
		Action:   audit.ActionLogin,
		Detail: map[string]any{
			"method":       string(creds.Kind),
			"tenantStatus": string(t.Status),
		},
	})

	return resp, nil
}

// loginContext resolves what is returned next to the token. Entitlements are
// only computed for active tenants.
func (s *Service) loginContext(
	ctx context.Context,
	t *tenant.Tenant,
) ([]entitlement.Entitlement, *branding.WhiteLabel, error) {
	ents := []entitlement.Entitlement{}
	if t.IsActive() {
		resolved, err := s.deps.Entitlements.ResolveEntitlements(ctx, t.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve entitlements: %w", err)
		}
		ents = resolved
	}

	wl, err := s.deps.Branding.ResolveBranding(ctx, t.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve branding: %w", err)
	}

	return ents, wl, nil
}

func (s *Service) rejected(
	ctx context.Context,
	creds Credentials,
	u *user.User,
	t *tenant.Tenant,
	err error,
) {
	outcome := loginOutcome(err)
	s.deps.Metrics.ObserveLogin(string(creds.Kind), outcome)
	if outcome == metrics.OutcomeError {
		s.deps.Logger.Error("login failed", "method", creds.Kind, "error", err)
		return
	}

	ev := audit.Event{
		Action: audit.ActionLoginRejected,
		Detail: map[string]any{"method": string(creds.Kind), "reason": outcome},
	}
	if creds.Kind == KindLocal {
		ev.Detail["email"] = strings.ToLower(strings.TrimSpace(creds.Email))
	}
	if u != nil {
		ev.ActorID = u.ID
	}
	if t != nil {
		ev.TenantID = t.ID
		ev.Detail["tenantStatus"] = string(t.Status)
	}
	s.deps.Audit.Record(ctx, ev)
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, core.ErrTenantInactive):
		return metrics.OutcomeInactive
	case errors.Is(err, core.ErrConflictingAccount):
		return metrics.OutcomeConflict
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrInvalidFederatedToken),
		errors.Is(err, core.ErrInvalidInput):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

// Register signs up a new organization: an Active tenant and its first
// local admin, written in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.TaxID = strings.TrimSpace(req.TaxID)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validator.Struct(req); err != nil {
		return nil, core.NewValidationError(core.ValidationMessages(err)...)
	}

	t := tenant.New(req.CompanyName, req.Email, tenant.StatusActive)
	if req.TaxID != "" {
		t.TaxID = &req.TaxID
	}

	u, err := user.NewLocal(t.ID, req.Email, req.Password, req.Name, user.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	reg := s.deps.Registration
	err = reg.Tx.WithinTx(ctx, func(tx core.DBTX) error {
		tenants := reg.Tenants(tx)

		if t.TaxID != nil {
			exists, err := tenants.ExistsByTaxID(ctx, *t.TaxID, "")
			if err != nil {
				return err
			}
			if exists {
				return core.DuplicateError("taxId")
			}
		}

		if err := tenants.Create(ctx, t); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return core.DuplicateError("taxId")
			}
			return err
		}

		if err := reg.Users(tx).Create(ctx, u); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return core.DuplicateError("email")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	resp, err := s.deps.Issuer.IssueSession(u, t, nil, nil)
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.ObserveLogin("signup", metrics.OutcomeSuccess)
	s.deps.Audit.Record(ctx, audit.Event{
		ActorID:  u.ID,
		TenantID: t.ID,
		Action:   audit.ActionSignup,
		Detail:   map[string]any{"companyName": t.Name, "email": u.Email},
	})

	return resp, nil
}

// Me rebuilds the login payload for the caller's session from current
// state, without issuing a new token.
func (s *Service) Me(ctx context.Context, session *middleware.Session) (*MeResponse, error) {
	u, t, err := s.current(ctx, "me", session)
	if err != nil {
		return nil, err
	}

	ents, wl, err := s.loginContext(ctx, t)
	if err != nil {
		return nil, err
	}

	return &MeResponse{
		User:         user.ToSummary(u),
		Tenant:       tenant.ToSummary(t),
		Entitlements: ents,
		WhiteLabel:   branding.ToInfo(wl),
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Refresh issues a new session from the stored user and tenant. A setup
// session refreshed after setup completes comes back as a full session.
func (s *Service) Refresh(ctx context.Context, session *middleware.Session) (*LoginResponse, error) {
	u, t, err := s.current(ctx, "refresh", session)
	if err != nil {
		return nil, err
	}

	ents, wl, err := s.loginContext(ctx, t)
	if err != nil {
		return nil, err
	}

	resp, err := s.deps.Issuer.IssueSession(u, t, ents, wl)
	if err != nil {
		return nil, err
	}

	s.deps.Audit.Record(ctx, audit.Event{
		ActorID:  u.ID,
		TenantID: t.ID,
		Action:   audit.ActionSessionRefreshed,
		Detail: map[string]any{
			"fromStatus": session.TenantStatus,
			"toStatus":   string(t.Status),
		},
	})
	return resp, nil
}

// RenewSession is Refresh behind the tenant handler's renewer interface.
func (s *Service) RenewSession(ctx context.Context, session *middleware.Session) (any, error) {
	return s.Refresh(ctx, session)
}

// current loads the session's user and tenant and applies the login guards
// again. A user that is gone, deactivated or moved is ErrUnauthorized.
func (s *Service) current(
	ctx context.Context,
	op string,
	session *middleware.Session,
) (*user.User, *tenant.Tenant, error) {
	if session == nil || session.UserID == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, core.ErrUnauthorized)
	}

	u, err := s.deps.Users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, core.ErrUnauthorized)
		}
		return nil, nil, err
	}
	if u.IsDeactivated() || u.Tenant() != session.TenantID {
		return nil, nil, fmt.Errorf("%s: %w", op, core.ErrUnauthorized)
	}

	t, err := s.deps.Tenants.GetByID(ctx, session.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if err := tenant.RequireLoginAllowed(t); err != nil {
		return nil, nil, err
	}
	return u, t, nil
}
