// AngelaMos | 2026
// repository.go

package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, c *Credential) error
	Retire(ctx context.Context, tenantID, provider string) error
	GetActive(ctx context.Context, tenantID, provider string) (*Credential, error)
	ListActive(ctx context.Context, tenantID string) ([]Credential, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, c *Credential) error {
	query := `
		INSERT INTO integration_credentials (id, tenant_id, provider, credentials, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING is_active, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.TenantID,
		c.Provider,
		c.Sealed,
	).Scan(&c.IsActive, &c.CreatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("insert integration credentials: %w", core.ErrConflict)
		}
		return fmt.Errorf("insert integration credentials: %w", err)
	}

	return nil
}

// Retire deactivates the current set, if any. Old rows are kept.
func (r *repository) Retire(ctx context.Context, tenantID, provider string) error {
	query := `
		UPDATE integration_credentials
		SET is_active = FALSE
		WHERE tenant_id = $1 AND provider = $2 AND is_active`

	if _, err := r.db.ExecContext(ctx, query, tenantID, provider); err != nil {
		return fmt.Errorf("retire integration credentials: %w", err)
	}

	return nil
}

func (r *repository) GetActive(ctx context.Context, tenantID, provider string) (*Credential, error) {
	query := `
		SELECT id, tenant_id, provider, credentials, is_active, created_at
		FROM integration_credentials
		WHERE tenant_id = $1 AND provider = $2 AND is_active`

	var c Credential
	err := r.db.GetContext(ctx, &c, query, tenantID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get integration credentials: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get integration credentials: %w", err)
	}

	return &c, nil
}

func (r *repository) ListActive(ctx context.Context, tenantID string) ([]Credential, error) {
	query := `
		SELECT id, tenant_id, provider, credentials, is_active, created_at
		FROM integration_credentials
		WHERE tenant_id = $1 AND is_active
		ORDER BY provider`

	var out []Credential
	if err := r.db.SelectContext(ctx, &out, query, tenantID); err != nil {
		return nil, fmt.Errorf("list integration credentials: %w", err)
	}

	return out, nil
}
