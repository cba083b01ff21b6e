// AngelaMos | 2026
// dto.go

package tenant

import (
	"time"
)

type CompleteSetupRequest = CompanyDetails

// Response is the tenant block of login and profile payloads. Email is the
// tenant's contact address.
type Response struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    Status     `json:"status"`
	TaxID     string     `json:"taxId,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// SetupResponse carries the completed tenant and, when one could be issued,
// a full session replacing the setup-scoped one.
type SetupResponse struct {
	Tenant  Response `json:"tenant"`
	Session any      `json:"session,omitempty"`
}

func ToResponse(t *Tenant) Response {
	created := t.CreatedAt
	return Response{
		ID:        t.ID,
		Name:      t.Name,
		Email:     t.ContactEmail,
		Status:    t.Status,
		TaxID:     deref(t.TaxID),
		Phone:     deref(t.Phone),
		Address:   deref(t.Address),
		CreatedAt: &created,
	}
}

// ToSummary is the compact form embedded in the login response.
func ToSummary(t *Tenant) Response {
	return Response{
		ID:     t.ID,
		Name:   t.Name,
		Email:  t.ContactEmail,
		Status: t.Status,
	}
}

func ToResponseList(tenants []Tenant) []Response {
	out := make([]Response, 0, len(tenants))
	for i := range tenants {
		out = append(out, ToResponse(&tenants[i]))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
