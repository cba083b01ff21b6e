// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/tenant-platform/internal/core"
)

const (
	SessionKey contextKey = "session"
)

const (
	tenantStatusActive       = "active"
	tenantStatusPendingSetup = "pending_setup"
)

// Session is the verified content of a session credential. It is loaded
// once per request by Authenticator and read by handlers through
// GetSession; nothing about it lives outside the request context.
type Session struct {
	UserID       string
	Role         string
	AuthType     string
	TenantID     string
	TenantStatus string
	ExpiresAt    time.Time
}

func (s *Session) IsPendingSetup() bool {
	return s.TenantStatus == tenantStatusPendingSetup
}

type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*Session, error)
}

// TenantStatusChecker reports a tenant's stored status.
type TenantStatusChecker interface {
	CurrentStatus(ctx context.Context, tenantID string) (string, error)
}

// UserRoleChecker returns the stored role of an enabled user of the tenant,
// or core.ErrNotFound when the user is gone, deactivated or moved.
type UserRoleChecker interface {
	CurrentRole(ctx context.Context, tenantID, userID string) (string, error)
}

func Authenticator(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			session, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole("admin")(next)
}

// RequireActiveUser re-reads the session's user so a deactivation or role
// change takes effect before the session expires. The stored role replaces
// the signed one for everything downstream, RequireRole included.
func RequireActiveUser(checker UserRoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			if session == nil {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			role, err := checker.CurrentRole(r.Context(), session.TenantID, session.UserID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(w, core.TokenRevokedError())
					return
				}
				core.InternalServerError(w, err)
				return
			}

			current := *session
			current.Role = role
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), &current)))
		})
	}
}

// RequireActiveTenant rejects setup-scoped sessions and re-reads the
// tenant's status so a suspension takes effect before the session expires.
func RequireActiveTenant(checker TenantStatusChecker) func(http.Handler) http.Handler {
	return requireTenantStatus(checker, false)
}

// AllowPendingSetup admits Active tenants and setup-scoped sessions of
// PendingSetup tenants. It guards only the setup flow and the profile
// lookup the client needs to drive it.
func AllowPendingSetup(checker TenantStatusChecker) func(http.Handler) http.Handler {
	return requireTenantStatus(checker, true)
}

func requireTenantStatus(
	checker TenantStatusChecker,
	allowPending bool,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			if session == nil {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			if session.IsPendingSetup() && !allowPending {
				core.JSONError(w, core.NewAppError(
					core.ErrTenantInactive,
					"tenant setup must be completed first",
					http.StatusForbidden,
					"TENANT_SETUP_REQUIRED",
				))
				return
			}

			status, err := checker.CurrentStatus(r.Context(), session.TenantID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(w, core.TenantInactiveError())
					return
				}
				core.InternalServerError(w, err)
				return
			}

			switch {
			case status == tenantStatusActive:
			case allowPending && status == tenantStatusPendingSetup:
			default:
				core.JSONError(w, core.TenantInactiveError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOperatorKey guards the platform operator surface with a shared
// secret sent in X-Operator-Key. An empty key disables the surface.
func RequireOperatorKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				core.JSONError(w, core.ForbiddenError("operator access disabled"))
				return
			}

			given := r.Header.Get("X-Operator-Key")
			if given == "" || !core.SecretsEqual(given, key) {
				core.JSONError(w, core.UnauthorizedError("invalid operator key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

func GetSession(ctx context.Context) *Session {
	if s, ok := ctx.Value(SessionKey).(*Session); ok {
		return s
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.UserID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.Role
	}
	return ""
}

func GetTenantID(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.TenantID
	}
	return ""
}
