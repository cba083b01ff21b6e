// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

// Repository has no update or delete: the table is append-only and a
// trigger rejects both at the database too.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]Entry, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, tenant_id, action, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID,
		entry.ActorID,
		entry.TenantID,
		entry.Action,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

func (r *repository) ListByTenant(
	ctx context.Context,
	tenantID string,
	limit int,
) ([]Entry, error) {
	if !core.ValidIDs(tenantID) {
		return nil, fmt.Errorf("list audit entries: %w", core.ErrNotFound)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, actor_id, tenant_id, action, detail, created_at
		FROM audit_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, tenantID, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}
