// AngelaMos | 2026
// dto.go

package entitlement

import (
	"time"
)

type CreateProductRequest struct {
	Name         string  `json:"name"         validate:"required,min=1,max=100"`
	Category     string  `json:"category"     validate:"required,min=1,max=50"`
	Description  *string `json:"description"  validate:"omitempty,max=2000"`
	BillingModel string  `json:"billingModel" validate:"required,oneof=free monthly fixed usage one_time hybrid"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
	Launched     bool    `json:"launched"`
}

type SetLaunchedRequest struct {
	Launched bool `json:"launched"`
}

type SubscribeRequest struct {
	ProductID     string `json:"productId"     validate:"required,uuid"`
	BillingPeriod string `json:"billingPeriod" validate:"required,oneof=monthly quarterly annual one_time"`
}

type ActivationRequest struct {
	Active bool `json:"active"`
}

type AccessResponse struct {
	ProductID string `json:"productId"`
	Allowed   bool   `json:"allowed"`
}

type SubscriptionResponse struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenantId"`
	ProductID     string     `json:"productId"`
	BillingPeriod string     `json:"billingPeriod"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type TenantProductResponse struct {
	TenantID    string     `json:"tenantId"`
	ProductID   string     `json:"productId"`
	IsActive    bool       `json:"isActive"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:            s.ID,
		TenantID:      s.TenantID,
		ProductID:     s.ProductID,
		BillingPeriod: s.BillingPeriod,
		CancelledAt:   s.CancelledAt,
		CreatedAt:     s.CreatedAt,
	}
}

func ToSubscriptionResponseList(subs []Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, ToSubscriptionResponse(&subs[i]))
	}
	return out
}

func ToTenantProductResponse(tp *TenantProduct) TenantProductResponse {
	return TenantProductResponse{
		TenantID:    tp.TenantID,
		ProductID:   tp.ProductID,
		IsActive:    tp.IsActive,
		ActivatedAt: tp.ActivatedAt,
	}
}
