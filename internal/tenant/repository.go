// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	ExistsByTaxID(ctx context.Context, taxID, excludeID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, version int, to Status) (*Tenant, error)
	CompleteSetup(ctx context.Context, id string, version int, d CompanyDetails) (*Tenant, error)
	List(ctx context.Context, params ListParams) ([]Tenant, int, error)
}

type ListParams struct {
	Page     int
	PageSize int
	Status   Status
	Search   string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

const tenantColumns = `id, name, tax_id, contact_email, phone, address,
		       status, version, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Tenant) error {
	query := `
		INSERT INTO tenants (id, name, tax_id, contact_email, phone, address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.Name,
		t.TaxID,
		t.ContactEmail,
		t.Phone,
		t.Address,
		t.Status,
	).Scan(&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	if !core.ValidIDs(id) {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	return &t, nil
}

func (r *repository) ExistsByTaxID(
	ctx context.Context,
	taxID, excludeID string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tenants WHERE tax_id = $1 AND id <> $2)`

	if excludeID == "" {
		excludeID = "00000000-0000-0000-0000-000000000000"
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, taxID, excludeID); err != nil {
		return false, fmt.Errorf("check tax id exists: %w", err)
	}

	return exists, nil
}

// UpdateStatus applies the change only if the row still carries version.
// A concurrent writer makes it affect zero rows, reported as ErrConflict.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	version int,
	to Status,
) (*Tenant, error) {
	query := `
		UPDATE tenants
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + tenantColumns

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, id, version, to)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update tenant status: %w", core.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update tenant status: %w", err)
	}

	return &t, nil
}

func (r *repository) CompleteSetup(
	ctx context.Context,
	id string,
	version int,
	d CompanyDetails,
) (*Tenant, error) {
	query := `
		UPDATE tenants
		SET name = $3, tax_id = $4, contact_email = $5, phone = $6, address = $7,
		    status = 'active', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = 'pending_setup'
		RETURNING ` + tenantColumns

	var t Tenant
	err := r.db.GetContext(ctx, &t, query,
		id,
		version,
		d.Name,
		d.TaxID,
		d.ContactEmail,
		nullable(d.Phone),
		nullable(d.Address),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("complete tenant setup: %w", core.ErrConflict)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return nil, fmt.Errorf("complete tenant setup: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("complete tenant setup: %w", err)
	}

	return &t, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Tenant, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR contact_email ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM tenants WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tenants
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		tenantColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var tenants []Tenant
	if err := r.db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, total, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
