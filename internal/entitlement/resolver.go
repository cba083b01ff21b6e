// AngelaMos | 2026
// resolver.go

package entitlement

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
)

// TenantProducts is the per-tenant read side the resolver needs.
type TenantProducts interface {
	ListTenantProducts(ctx context.Context, tenantID string) ([]TenantProduct, error)
	GetTenantProduct(ctx context.Context, tenantID, productID string) (*TenantProduct, error)
}

// Resolver answers which products a tenant may use. It only reads; billing
// changes reach it through TenantProduct activation flags.
type Resolver struct {
	tenants TenantProducts
	catalog *CatalogCache
	metrics *metrics.Metrics
}

func NewResolver(tenants TenantProducts, catalog *CatalogCache, m *metrics.Metrics) *Resolver {
	return &Resolver{tenants: tenants, catalog: catalog, metrics: m}
}

// ResolveEntitlements lists the tenant's launched products ordered by
// display order, then name.
func (r *Resolver) ResolveEntitlements(ctx context.Context, tenantID string) ([]Entitlement, error) {
	rows, err := r.tenants.ListTenantProducts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []Entitlement{}, nil
	}

	products, err := r.catalog.Products(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]Entitlement, 0, len(rows))
	for _, row := range rows {
		p, ok := byID[row.ProductID]
		if !ok || !p.Launched {
			continue
		}
		out = append(out, Entitlement{
			Product:     p,
			IsActive:    row.IsActive,
			ActivatedAt: row.ActivatedAt,
			Actionable:  row.IsActive,
		})
	}

	slices.SortStableFunc(out, func(a, b Entitlement) int {
		return cmp.Or(
			cmp.Compare(a.DisplayOrder, b.DisplayOrder),
			cmp.Compare(a.Name, b.Name),
		)
	})

	return out, nil
}

// HasAccess is true iff the tenant has an active row for a launched product.
func (r *Resolver) HasAccess(ctx context.Context, tenantID, productID string) (bool, error) {
	allowed, err := r.hasAccess(ctx, tenantID, productID)
	if err != nil {
		return false, err
	}

	r.metrics.ObserveAccessCheck(allowed)
	return allowed, nil
}

func (r *Resolver) hasAccess(ctx context.Context, tenantID, productID string) (bool, error) {
	row, err := r.tenants.GetTenantProduct(ctx, tenantID, productID)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !row.IsActive {
		return false, nil
	}

	p, ok, err := r.catalog.Product(ctx, productID)
	if err != nil {
		return false, err
	}

	return ok && p.Launched, nil
}
