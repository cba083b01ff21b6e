// AngelaMos | 2026
// entity.go

package tenant

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusSuspended    Status = "suspended"
	StatusPendingSetup Status = "pending_setup"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPendingSetup:
		return true
	}
	return false
}

type Tenant struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	TaxID        *string   `db:"tax_id"`
	ContactEmail string    `db:"contact_email"`
	Phone        *string   `db:"phone"`
	Address      *string   `db:"address"`
	Status       Status    `db:"status"`
	Version      int       `db:"version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

func (t *Tenant) IsPendingSetup() bool {
	return t.Status == StatusPendingSetup
}

// CompanyDetails are the fields collected when a pending tenant finishes
// setup, or when a tenant signs up directly.
type CompanyDetails struct {
	Name         string `json:"name"         validate:"required,min=1,max=200"`
	TaxID        string `json:"taxId"        validate:"required,max=50"`
	ContactEmail string `json:"contactEmail" validate:"required,email,max=255"`
	Phone        string `json:"phone"        validate:"omitempty,max=50"`
	Address      string `json:"address"      validate:"omitempty,max=500"`
}

// transitions lists, per target status, the states an administrative
// action may start from.
var transitions = map[Status][]Status{
	StatusActive:    {StatusInactive, StatusSuspended},
	StatusInactive:  {StatusActive, StatusSuspended},
	StatusSuspended: {StatusActive},
}

// CanTransition reports whether an administrative action may move a tenant
// from one status to another. Completing setup is not an administrative
// transition and is handled separately.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// RequireActive fails unless the tenant is Active.
func RequireActive(t *Tenant) error {
	if t == nil || !t.IsActive() {
		return core.ErrTenantInactive
	}
	return nil
}

// RequireLoginAllowed admits Active tenants and PendingSetup tenants. The
// latter only get a setup-scoped session with no entitlements.
func RequireLoginAllowed(t *Tenant) error {
	if t == nil {
		return core.ErrTenantInactive
	}
	switch t.Status {
	case StatusActive, StatusPendingSetup:
		return nil
	}
	return fmt.Errorf("tenant %s is %s: %w", t.ID, t.Status, core.ErrTenantInactive)
}
