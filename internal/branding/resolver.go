// AngelaMos | 2026
// resolver.go

package branding

import (
	"context"
	"errors"
	"strings"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Reader interface {
	Get(ctx context.Context, tenantID string) (*WhiteLabel, error)
	GetByDomain(ctx context.Context, domain string) (*WhiteLabel, error)
}

type Resolver struct {
	repo Reader
}

func NewResolver(repo Reader) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveBranding returns the tenant's record verbatim, or nil when the
// tenant uses the platform default.
func (r *Resolver) ResolveBranding(ctx context.Context, tenantID string) (*WhiteLabel, error) {
	w, err := r.repo.Get(ctx, tenantID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ResolveByDomain serves pre-login pages reached through a custom domain.
func (r *Resolver) ResolveByDomain(ctx context.Context, domain string) (*WhiteLabel, error) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return nil, nil
	}

	w, err := r.repo.GetByDomain(ctx, domain)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if host, _, ok := strings.Cut(d, ":"); ok {
		d = host
	}
	return strings.TrimSuffix(d, ".")
}
