// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/tenant-platform/internal/branding"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type FederatedLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type RegisterRequest struct {
	CompanyName string `json:"companyName" validate:"required,min=1,max=200"`
	TaxID       string `json:"taxId"       validate:"omitempty,max=50"`
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,min=8,max=128"`
	Name        string `json:"name"        validate:"required,min=1,max=100"`
}

// LoginResponse is the data block of every successful login. Entitlements
// and branding are computed at issuance and never signed into the token.
type LoginResponse struct {
	Token        string                    `json:"token"`
	ExpiresAt    time.Time                 `json:"expiresAt"`
	User         user.UserResponse         `json:"user"`
	Tenant       tenant.Response           `json:"tenant"`
	Entitlements []entitlement.Entitlement `json:"entitlements"`
	WhiteLabel   *branding.Info            `json:"whiteLabel,omitempty"`
	IsNewTenant  bool                      `json:"isNewTenant,omitempty"`
}

// MeResponse is the session profile without a new token.
type MeResponse struct {
	User         user.UserResponse         `json:"user"`
	Tenant       tenant.Response           `json:"tenant"`
	Entitlements []entitlement.Entitlement `json:"entitlements"`
	WhiteLabel   *branding.Info            `json:"whiteLabel,omitempty"`
	ExpiresAt    time.Time                 `json:"expiresAt"`
}
