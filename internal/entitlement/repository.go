// AngelaMos | 2026
// repository.go

package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Repository interface {
	ListCatalog(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	SetLaunched(ctx context.Context, id string, launched bool) error

	ListTenantProducts(ctx context.Context, tenantID string) ([]TenantProduct, error)
	GetTenantProduct(ctx context.Context, tenantID, productID string) (*TenantProduct, error)
	SetActivation(ctx context.Context, tenantID, productID string, active bool) (*TenantProduct, error)
	LockTenantProduct(ctx context.Context, tenantID, productID string) error

	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, tenantID, id string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID string) ([]Subscription, error)
	CancelSubscription(ctx context.Context, id string) (time.Time, error)
	CountOpenSubscriptions(ctx context.Context, tenantID, productID string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListCatalog(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id, name, category, description, billing_model,
		       display_order, launched, created_at
		FROM product_catalog
		ORDER BY display_order, name`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	return products, nil
}

func (r *repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	if !core.ValidIDs(id) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}

	query := `
		SELECT id, name, category, description, billing_model,
		       display_order, launched, created_at
		FROM product_catalog
		WHERE id = $1`

	var p Product
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

func (r *repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO product_catalog (id, name, category, description,
		                             billing_model, display_order, launched)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &p.CreatedAt, query,
		p.ID,
		p.Name,
		p.Category,
		p.Description,
		p.BillingModel,
		p.DisplayOrder,
		p.Launched,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) SetLaunched(ctx context.Context, id string, launched bool) error {
	if !core.ValidIDs(id) {
		return fmt.Errorf("set launched: %w", core.ErrNotFound)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE product_catalog SET launched = $2 WHERE id = $1`, id, launched)
	if err != nil {
		return fmt.Errorf("set launched: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set launched: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set launched: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListTenantProducts(
	ctx context.Context,
	tenantID string,
) ([]TenantProduct, error) {
	if !core.ValidIDs(tenantID) {
		return nil, fmt.Errorf("list tenant products: %w", core.ErrNotFound)
	}

	query := `
		SELECT tenant_id, product_id, is_active, activated_at
		FROM tenant_products
		WHERE tenant_id = $1`

	var rows []TenantProduct
	if err := r.db.SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, fmt.Errorf("list tenant products: %w", err)
	}

	return rows, nil
}

func (r *repository) GetTenantProduct(
	ctx context.Context,
	tenantID, productID string,
) (*TenantProduct, error) {
	if !core.ValidIDs(tenantID, productID) {
		return nil, fmt.Errorf("get tenant product: %w", core.ErrNotFound)
	}

	query := `
		SELECT tenant_id, product_id, is_active, activated_at
		FROM tenant_products
		WHERE tenant_id = $1 AND product_id = $2`

	var tp TenantProduct
	err := r.db.GetContext(ctx, &tp, query, tenantID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant product: %w", err)
	}

	return &tp, nil
}

// LockTenantProduct takes a row lock on the (tenant, product) activation row
// for the rest of the transaction. A missing row is ErrNotFound.
func (r *repository) LockTenantProduct(ctx context.Context, tenantID, productID string) error {
	if !core.ValidIDs(tenantID, productID) {
		return fmt.Errorf("lock tenant product: %w", core.ErrNotFound)
	}

	query := `
		SELECT is_active
		FROM tenant_products
		WHERE tenant_id = $1 AND product_id = $2
		FOR UPDATE`

	var active bool
	err := r.db.GetContext(ctx, &active, query, tenantID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock tenant product: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock tenant product: %w", err)
	}
	return nil
}

// SetActivation upserts the (tenant, product) row. activated_at records the
// most recent inactive to active flip and is kept when deactivating.
func (r *repository) SetActivation(
	ctx context.Context,
	tenantID, productID string,
	active bool,
) (*TenantProduct, error) {
	query := `
		INSERT INTO tenant_products (tenant_id, product_id, is_active, activated_at)
		VALUES ($1, $2, $3, CASE WHEN $3 THEN NOW() END)
		ON CONFLICT (tenant_id, product_id) DO UPDATE
		SET is_active = EXCLUDED.is_active,
		    activated_at = CASE
		        WHEN EXCLUDED.is_active AND NOT tenant_products.is_active THEN NOW()
		        ELSE tenant_products.activated_at
		    END
		RETURNING tenant_id, product_id, is_active, activated_at`

	var tp TenantProduct
	if err := r.db.GetContext(ctx, &tp, query, tenantID, productID, active); err != nil {
		return nil, fmt.Errorf("set activation: %w", err)
	}

	return &tp, nil
}

func (r *repository) CreateSubscription(ctx context.Context, s *Subscription) error {
	query := `
		INSERT INTO tenant_subscriptions (id, tenant_id, product_id, billing_period)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if err := r.db.GetContext(ctx, &s.CreatedAt, query,
		s.ID, s.TenantID, s.ProductID, s.BillingPeriod,
	); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

func (r *repository) GetSubscription(
	ctx context.Context,
	tenantID, id string,
) (*Subscription, error) {
	if !core.ValidIDs(tenantID, id) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}

	query := `
		SELECT id, tenant_id, product_id, billing_period, cancelled_at, created_at
		FROM tenant_subscriptions
		WHERE id = $1 AND tenant_id = $2`

	var s Subscription
	err := r.db.GetContext(ctx, &s, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &s, nil
}

func (r *repository) ListSubscriptions(
	ctx context.Context,
	tenantID string,
) ([]Subscription, error) {
	if !core.ValidIDs(tenantID) {
		return nil, fmt.Errorf("list subscriptions: %w", core.ErrNotFound)
	}

	query := `
		SELECT id, tenant_id, product_id, billing_period, cancelled_at, created_at
		FROM tenant_subscriptions
		WHERE tenant_id = $1
		ORDER BY created_at DESC`

	var subs []Subscription
	if err := r.db.SelectContext(ctx, &subs, query, tenantID); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return subs, nil
}

// CancelSubscription stamps cancelled_at once. A row that is already
// cancelled matches nothing and yields ErrConflict.
func (r *repository) CancelSubscription(ctx context.Context, id string) (time.Time, error) {
	query := `
		UPDATE tenant_subscriptions
		SET cancelled_at = NOW()
		WHERE id = $1 AND cancelled_at IS NULL
		RETURNING cancelled_at`

	var cancelledAt time.Time
	err := r.db.GetContext(ctx, &cancelledAt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("cancel subscription: %w", core.ErrConflict)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("cancel subscription: %w", err)
	}

	return cancelledAt, nil
}

func (r *repository) CountOpenSubscriptions(
	ctx context.Context,
	tenantID, productID string,
) (int, error) {
	query := `
		SELECT COUNT(*) FROM tenant_subscriptions
		WHERE tenant_id = $1 AND product_id = $2 AND cancelled_at IS NULL`

	var n int
	if err := r.db.GetContext(ctx, &n, query, tenantID, productID); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}

	return n, nil
}
