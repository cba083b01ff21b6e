// AngelaMos | 2026
// entity.go

package entitlement

import (
	"time"
)

type BillingModel string

const (
	BillingFree    BillingModel = "free"
	BillingMonthly BillingModel = "monthly"
	BillingFixed   BillingModel = "fixed"
	BillingUsage   BillingModel = "usage"
	BillingOneTime BillingModel = "one_time"
	BillingHybrid  BillingModel = "hybrid"
)

func (b BillingModel) Valid() bool {
	switch b {
	case BillingFree, BillingMonthly, BillingFixed,
		BillingUsage, BillingOneTime, BillingHybrid:
		return true
	}
	return false
}

// Product is a platform-owned catalog entry. Tenants reference it through
// TenantProduct and never own it.
type Product struct {
	ID           string       `db:"id"            json:"id"`
	Name         string       `db:"name"          json:"name"`
	Category     string       `db:"category"      json:"category"`
	Description  *string      `db:"description"   json:"description,omitempty"`
	BillingModel BillingModel `db:"billing_model" json:"billingModel"`
	DisplayOrder int          `db:"display_order" json:"displayOrder"`
	Launched     bool         `db:"launched"      json:"launched"`
	CreatedAt    time.Time    `db:"created_at"    json:"createdAt"`
}

type TenantProduct struct {
	TenantID    string     `db:"tenant_id"`
	ProductID   string     `db:"product_id"`
	IsActive    bool       `db:"is_active"`
	ActivatedAt *time.Time `db:"activated_at"`
}

type Subscription struct {
	ID            string     `db:"id"`
	TenantID      string     `db:"tenant_id"`
	ProductID     string     `db:"product_id"`
	BillingPeriod string     `db:"billing_period"`
	CancelledAt   *time.Time `db:"cancelled_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

func (s *Subscription) IsCancelled() bool {
	return s.CancelledAt != nil
}

// Entitlement is a launched catalog product joined with the tenant's
// activation state. Inactive rows are still listed so clients can render
// "no access", but they are not actionable.
type Entitlement struct {
	Product
	IsActive    bool       `json:"isActive"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	Actionable  bool       `json:"actionable"`
}
