// AngelaMos | 2026
// session.go

package auth

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/tenant-platform/internal/branding"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
)

type SessionSigner interface {
	SignSession(claims SessionClaims, ttl time.Duration) (string, time.Time, error)
}

// SessionIssuer turns an authenticated user into a signed session and the
// login payload around it.
type SessionIssuer struct {
	signer   SessionSigner
	lifetime time.Duration
	setupTTL time.Duration
}

func NewSessionIssuer(signer SessionSigner, lifetime, setupTTL time.Duration) *SessionIssuer {
	return &SessionIssuer{signer: signer, lifetime: lifetime, setupTTL: setupTTL}
}

// IssueSession signs identity and tenant status only. A pending-setup
// tenant gets the shorter setup lifetime and no entitlements.
func (i *SessionIssuer) IssueSession(
	u *user.User,
	t *tenant.Tenant,
	ents []entitlement.Entitlement,
	wl *branding.WhiteLabel,
) (*LoginResponse, error) {
	ttl := i.lifetime
	if t.IsPendingSetup() {
		ttl = i.setupTTL
		ents = nil
	}
	if ents == nil {
		ents = []entitlement.Entitlement{}
	}

	token, expiresAt, err := i.signer.SignSession(SessionClaims{
		UserID:       u.ID,
		Role:         u.Role,
		AuthType:     u.AuthType,
		TenantID:     t.ID,
		TenantStatus: string(t.Status),
	}, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &LoginResponse{
		Token:        token,
		ExpiresAt:    expiresAt,
		User:         user.ToSummary(u),
		Tenant:       tenant.ToSummary(t),
		Entitlements: ents,
		WhiteLabel:   branding.ToInfo(wl),
	}, nil
}
