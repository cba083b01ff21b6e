// AngelaMos | 2026
// entity.go

package integration

import (
	"time"
)

// Credential is one sealed secret set for a tenant's external integration.
// At most one row per (tenant, provider) is active.
type Credential struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Provider  string    `db:"provider"`
	Sealed    []byte    `db:"credentials"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

type RotateRequest struct {
	Secrets map[string]string `json:"secrets" validate:"required,min=1,dive,keys,required,max=100,endkeys,required,max=4096"`
}

// Summary never carries secret material.
type Summary struct {
	Provider  string    `json:"provider"`
	Keys      []string  `json:"keys,omitempty"`
	RotatedAt time.Time `json:"rotatedAt"`
}
