// AngelaMos | 2026
// federated.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
)

const defaultTenantName = "New Organization"

// IdentityStore is the lookup side of the user repository used by
// federated login.
type IdentityStore interface {
	GetByExternalSubject(ctx context.Context, subject string) (*user.User, error)
	GetLocalByEmail(ctx context.Context, email string) (*user.User, error)
}

// Provisioner creates the tenant and admin user for a first federated
// login. Implementations must do both atomically and return an error
// wrapping core.ErrConflict when the subject was provisioned concurrently.
type Provisioner interface {
	Provision(ctx context.Context, id *ExternalIdentity) (*user.User, *tenant.Tenant, error)
}

// TxProvisioner provisions inside one database transaction. The unique
// index on users.external_subject turns a concurrent first login into
// core.ErrConflict.
type TxProvisioner struct {
	tx      core.Transactor
	tenants func(core.DBTX) tenant.Repository
	users   func(core.DBTX) user.Repository
}

func NewTxProvisioner(
	tx core.Transactor,
	tenants func(core.DBTX) tenant.Repository,
	users func(core.DBTX) user.Repository,
) *TxProvisioner {
	return &TxProvisioner{tx: tx, tenants: tenants, users: users}
}

func (p *TxProvisioner) Provision(
	ctx context.Context,
	id *ExternalIdentity,
) (*user.User, *tenant.Tenant, error) {
	t := tenant.New(PlaceholderTenantName(id.Email), id.Email, tenant.StatusPendingSetup)
	u := user.NewFederated(t.ID, id.Subject, id.Email, displayName(id))

	err := p.tx.WithinTx(ctx, func(tx core.DBTX) error {
		if err := p.tenants(tx).Create(ctx, t); err != nil {
			return err
		}
		return p.users(tx).Create(ctx, u)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("provision tenant: %w", err)
	}

	return u, t, nil
}

type FederatedBridge struct {
	idp         IdentityProvider
	users       IdentityStore
	tenants     TenantLoader
	provisioner Provisioner
	audit       audit.Sink
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewFederatedBridge(
	idp IdentityProvider,
	users IdentityStore,
	tenants TenantLoader,
	provisioner Provisioner,
	sink audit.Sink,
	m *metrics.Metrics,
	logger *slog.Logger,
) *FederatedBridge {
	if sink == nil {
		sink = audit.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FederatedBridge{
		idp:         idp,
		users:       users,
		tenants:     tenants,
		provisioner: provisioner,
		audit:       sink,
		metrics:     m,
		logger:      logger,
	}
}

// AuthenticateFederated validates the assertion and returns the linked user
// and tenant, provisioning both on first login. isNew reports whether this
// call created the tenant.
func (b *FederatedBridge) AuthenticateFederated(
	ctx context.Context,
	token string,
) (*user.User, *tenant.Tenant, bool, error) {
	id, err := b.idp.Validate(ctx, token)
	if err != nil {
		if !errors.Is(err, core.ErrInvalidFederatedToken) {
			err = fmt.Errorf("%w: %w", core.ErrInvalidFederatedToken, err)
		}
		return nil, nil, false, err
	}

	u, t, err := b.lookup(ctx, id.Subject)
	if err == nil {
		return u, t, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, nil, false, err
	}

	if err := b.checkLocalCollision(ctx, id.Email); err != nil {
		b.metrics.ObserveProvision(metrics.OutcomeRejected)
		return nil, nil, false, err
	}

	u, t, err = b.provisioner.Provision(ctx, id)
	switch {
	case err == nil:
		b.metrics.ObserveProvision(metrics.OutcomeSuccess)
		b.audit.Record(ctx, audit.Event{
			ActorID:  u.ID,
			TenantID: t.ID,
			Action:   audit.ActionTenantProvisioned,
			Detail:   map[string]any{"subject": id.Subject, "email": id.Email},
		})
		return u, t, true, nil

	case errors.Is(err, core.ErrConflict):
		b.metrics.ObserveProvision(metrics.OutcomeConflict)
		b.logger.Info("concurrent federated provisioning, retrying lookup", "subject", id.Subject)

		u, t, lookupErr := b.lookup(ctx, id.Subject)
		if lookupErr == nil {
			return u, t, false, nil
		}
		return nil, nil, false, fmt.Errorf(
			"federated login: provisioning conflict: %w: %w",
			core.ErrConflictingAccount, err,
		)

	case errors.Is(err, core.ErrDuplicateKey):
		b.metrics.ObserveProvision(metrics.OutcomeRejected)
		return nil, nil, false, fmt.Errorf("federated login: %w: %w", core.ErrConflictingAccount, err)

	default:
		b.metrics.ObserveProvision(metrics.OutcomeError)
		return nil, nil, false, err
	}
}

func (b *FederatedBridge) lookup(ctx context.Context, subject string) (*user.User, *tenant.Tenant, error) {
	u, err := b.users.GetByExternalSubject(ctx, subject)
	if err != nil {
		return nil, nil, err
	}
	if u.IsDeactivated() {
		return nil, nil, fmt.Errorf("federated login: user deactivated: %w", core.ErrInvalidFederatedToken)
	}

	t, err := b.tenants.GetByID(ctx, u.Tenant())
	if err != nil {
		return nil, nil, fmt.Errorf("federated login: load tenant: %w", err)
	}

	return u, t, nil
}

// A local account with the same email is never merged with a federated
// identity.
func (b *FederatedBridge) checkLocalCollision(ctx context.Context, email string) error {
	_, err := b.users.GetLocalByEmail(ctx, email)
	if err == nil {
		return fmt.Errorf("federated login: %s: %w", email, core.ErrConflictingAccount)
	}
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("federated login: check local account: %w", err)
}

// PlaceholderTenantName derives a tenant name from the email domain:
// "jane@acme.co.uk" gives "Acme".
func PlaceholderTenantName(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return defaultTenantName
	}

	label, _, _ := strings.Cut(strings.TrimSpace(domain), ".")
	if label == "" {
		return defaultTenantName
	}

	r := []rune(strings.ToLower(label))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func displayName(id *ExternalIdentity) string {
	if id.Name != "" {
		return id.Name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	if local == "" {
		return id.Email
	}
	return local
}
