// AngelaMos | 2026
// repository.go

package branding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Repository interface {
	Get(ctx context.Context, tenantID string) (*WhiteLabel, error)
	GetByDomain(ctx context.Context, domain string) (*WhiteLabel, error)
	Upsert(ctx context.Context, w *WhiteLabel) error
	SetAsset(ctx context.Context, tenantID string, kind AssetKind, url string) error
}

const whiteLabelColumns = `tenant_id, logo_url, primary_color, secondary_color,
		       accent_color, background_color, surface_color, text_color,
		       system_name, favicon_url, custom_domain, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) get(ctx context.Context, op, where string, arg any) (*WhiteLabel, error) {
	query := `SELECT ` + whiteLabelColumns + ` FROM white_labels WHERE ` + where

	var w WhiteLabel
	err := r.db.GetContext(ctx, &w, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &w, nil
}

func (r *repository) Get(ctx context.Context, tenantID string) (*WhiteLabel, error) {
	return r.get(ctx, "get branding", "tenant_id = $1", tenantID)
}

func (r *repository) GetByDomain(ctx context.Context, domain string) (*WhiteLabel, error) {
	return r.get(ctx, "get branding by domain", "custom_domain = $1", domain)
}

// Upsert writes the editable fields. Asset URLs are owned by SetAsset and
// left untouched on conflict.
func (r *repository) Upsert(ctx context.Context, w *WhiteLabel) error {
	query := `
		INSERT INTO white_labels (tenant_id, primary_color, secondary_color,
		                          accent_color, background_color, surface_color,
		                          text_color, system_name, custom_domain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id) DO UPDATE
		SET primary_color = EXCLUDED.primary_color,
		    secondary_color = EXCLUDED.secondary_color,
		    accent_color = EXCLUDED.accent_color,
		    background_color = EXCLUDED.background_color,
		    surface_color = EXCLUDED.surface_color,
		    text_color = EXCLUDED.text_color,
		    system_name = EXCLUDED.system_name,
		    custom_domain = EXCLUDED.custom_domain,
		    updated_at = NOW()
		RETURNING logo_url, favicon_url, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		w.TenantID,
		w.PrimaryColor,
		w.SecondaryColor,
		w.AccentColor,
		w.BackgroundColor,
		w.SurfaceColor,
		w.TextColor,
		w.SystemName,
		w.CustomDomain,
	).Scan(&w.LogoURL, &w.FaviconURL, &w.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("upsert branding: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("upsert branding: %w", err)
	}

	return nil
}

func (r *repository) SetAsset(
	ctx context.Context,
	tenantID string,
	kind AssetKind,
	url string,
) error {
	column := "logo_url"
	if kind == AssetFavicon {
		column = "favicon_url"
	}

	query := fmt.Sprintf(`
		UPDATE white_labels
		SET %s = $2, updated_at = NOW()
		WHERE tenant_id = $1`, column)

	result, err := r.db.ExecContext(ctx, query, tenantID, url)
	if err != nil {
		return fmt.Errorf("set branding asset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set branding asset: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set branding asset: %w", core.ErrNotFound)
	}

	return nil
}
