// AngelaMos | 2026
// entity.go

package audit

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Action string

const (
	ActionLogin               Action = "auth.login"
	ActionLoginRejected       Action = "auth.login_rejected"
	ActionSignup              Action = "auth.signup"
	ActionSessionRefreshed    Action = "auth.session_refreshed"
	ActionTenantProvisioned   Action = "tenant.provisioned"
	ActionTenantSetupComplete Action = "tenant.setup_completed"
	ActionTenantStatusChanged Action = "tenant.status_changed"
	ActionUserInvited         Action = "user.invited"
	ActionUserRoleChanged     Action = "user.role_changed"
	ActionUserDeactivated     Action = "user.deactivated"
	ActionBrandingUpdated     Action = "branding.updated"
	ActionBrandingAsset       Action = "branding.asset_uploaded"
	ActionProductActivation   Action = "entitlement.activation_changed"
	ActionSubscribed          Action = "entitlement.subscribed"
	ActionSubscriptionCancel  Action = "entitlement.subscription_cancelled"
	ActionIntegrationRotated  Action = "integration.credentials_rotated"
)

// Entry is one row of the append-only audit log.
type Entry struct {
	ID        string         `db:"id"         json:"id"`
	ActorID   *string        `db:"actor_id"   json:"actorId,omitempty"`
	TenantID  *string        `db:"tenant_id"  json:"tenantId,omitempty"`
	Action    string         `db:"action"     json:"action"`
	Detail    types.JSONText `db:"detail"     json:"detail"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Event is what callers hand to a Sink. Empty ids are stored as NULL.
type Event struct {
	ActorID  string
	TenantID string
	Action   Action
	Detail   map[string]any
}
