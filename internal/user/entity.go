// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID              string     `db:"id"`
	TenantID        *string    `db:"tenant_id"`
	Email           string     `db:"email"`
	PasswordHash    *string    `db:"password_hash"`
	Name            string     `db:"name"`
	Role            string     `db:"role"`
	AuthType        string     `db:"auth_type"`
	ExternalSubject *string    `db:"external_subject"`
	PhotoURL        *string    `db:"photo_url"`
	DeactivatedAt   *time.Time `db:"deactivated_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (u *User) IsDeactivated() bool {
	return u.DeactivatedAt != nil
}

func (u *User) IsLocal() bool {
	return u.AuthType == AuthTypeLocal
}

// Tenant returns the owning tenant id, or "" while a federated user is
// still being provisioned.
func (u *User) Tenant() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleViewer    = "viewer"
)

// AuthType is fixed at creation; a federated identity never becomes local
// or the other way round.
const (
	AuthTypeLocal     = "local"
	AuthTypeFederated = "federated"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleRecruiter, RoleViewer:
		return true
	}
	return false
}
