// AngelaMos | 2026
// dto.go

package branding

type UpsertRequest struct {
	PrimaryColor    string  `json:"primaryColor"    validate:"required,hexcolor"`
	SecondaryColor  string  `json:"secondaryColor"  validate:"required,hexcolor"`
	AccentColor     string  `json:"accentColor"     validate:"required,hexcolor"`
	BackgroundColor string  `json:"backgroundColor" validate:"required,hexcolor"`
	SurfaceColor    string  `json:"surfaceColor"    validate:"required,hexcolor"`
	TextColor       string  `json:"textColor"       validate:"required,hexcolor"`
	SystemName      *string `json:"systemName"      validate:"omitempty,min=1,max=100"`
	CustomDomain    *string `json:"customDomain"    validate:"omitempty,fqdn,max=255"`
}

// Info is the branding block embedded in the login response.
type Info struct {
	LogoURL         string `json:"logoUrl,omitempty"`
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	AccentColor     string `json:"accentColor"`
	BackgroundColor string `json:"backgroundColor"`
	SurfaceColor    string `json:"surfaceColor"`
	TextColor       string `json:"textColor"`
	SystemName      string `json:"systemName,omitempty"`
	FaviconURL      string `json:"faviconUrl,omitempty"`
	CustomDomain    string `json:"customDomain,omitempty"`
}

// ToInfo returns nil for a nil record so callers fall back to the platform
// default branding.
func ToInfo(w *WhiteLabel) *Info {
	if w == nil {
		return nil
	}
	return &Info{
		LogoURL:         deref(w.LogoURL),
		PrimaryColor:    w.PrimaryColor,
		SecondaryColor:  w.SecondaryColor,
		AccentColor:     w.AccentColor,
		BackgroundColor: w.BackgroundColor,
		SurfaceColor:    w.SurfaceColor,
		TextColor:       w.TextColor,
		SystemName:      deref(w.SystemName),
		FaviconURL:      deref(w.FaviconURL),
		CustomDomain:    deref(w.CustomDomain),
	}
}

type AssetResponse struct {
	Kind AssetKind `json:"kind"`
	URL  string    `json:"url"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
