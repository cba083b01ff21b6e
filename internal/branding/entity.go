// AngelaMos | 2026
// entity.go

package branding

import (
	"time"
)

// WhiteLabel is a tenant's presentation config. One row per tenant; every
// color is required, the rest is optional.
type WhiteLabel struct {
	TenantID        string    `db:"tenant_id"`
	LogoURL         *string   `db:"logo_url"`
	PrimaryColor    string    `db:"primary_color"`
	SecondaryColor  string    `db:"secondary_color"`
	AccentColor     string    `db:"accent_color"`
	BackgroundColor string    `db:"background_color"`
	SurfaceColor    string    `db:"surface_color"`
	TextColor       string    `db:"text_color"`
	SystemName      *string   `db:"system_name"`
	FaviconURL      *string   `db:"favicon_url"`
	CustomDomain    *string   `db:"custom_domain"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type AssetKind string

const (
	AssetLogo    AssetKind = "logo"
	AssetFavicon AssetKind = "favicon"
)

func (k AssetKind) Valid() bool {
	return k == AssetLogo || k == AssetFavicon
}

// AssetURL returns the stored URL for kind, if any.
func (w *WhiteLabel) AssetURL(kind AssetKind) *string {
	if kind == AssetFavicon {
		return w.FaviconURL
	}
	return w.LogoURL
}
