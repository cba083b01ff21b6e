// AngelaMos | 2026
// credential.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
)

// CredentialStore is the local-account side of the user repository.
type CredentialStore interface {
	GetLocalByEmail(ctx context.Context, email string) (*user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type TenantLoader interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

// CredentialAuthenticator checks email and password for local accounts. It
// does not look at tenant status.
type CredentialAuthenticator struct {
	users   CredentialStore
	tenants TenantLoader
	logger  *slog.Logger
}

func NewCredentialAuthenticator(
	users CredentialStore,
	tenants TenantLoader,
	logger *slog.Logger,
) *CredentialAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialAuthenticator{users: users, tenants: tenants, logger: logger}
}

// Authenticate spends one argon2 verification on every path so unknown
// emails, federated accounts and wrong passwords are indistinguishable.
func (a *CredentialAuthenticator) Authenticate(
	ctx context.Context,
	email, password string,
) (*user.User, *tenant.Tenant, error) {
	u, err := a.users.GetLocalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalizes timing for unknown emails
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, nil, fmt.Errorf("authenticate: %w", core.ErrInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("authenticate: %w", err)
	}

	if !u.IsLocal() || u.IsDeactivated() {
		//nolint:errcheck // equalizes timing for unusable accounts
		_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
		return nil, nil, fmt.Errorf("authenticate: %w", core.ErrInvalidCredentials)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, u.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("authenticate: verify password: %w", err)
	}
	if !valid {
		return nil, nil, fmt.Errorf("authenticate: %w", core.ErrInvalidCredentials)
	}

	if newHash != "" {
		if err := a.users.UpdatePassword(ctx, u.ID, newHash); err != nil {
			a.logger.Warn("password rehash failed", "user_id", u.ID, "error", err)
		}
	}

	t, err := a.tenants.GetByID(ctx, u.Tenant())
	if err != nil {
		return nil, nil, fmt.Errorf("authenticate: load tenant: %w", err)
	}

	return u, t, nil
}
