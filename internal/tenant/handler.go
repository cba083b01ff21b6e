// AngelaMos | 2026
// handler.go

package tenant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

// SessionRenewer reissues the caller's session from stored state.
type SessionRenewer interface {
	RenewSession(ctx context.Context, session *middleware.Session) (any, error)
}

type Handler struct {
	service *Service
	renewer SessionRenewer
}

// NewHandler builds the tenant handler. With a nil renewer, setup completion
// leaves the caller to sign in again.
func NewHandler(service *Service, renewer SessionRenewer) *Handler {
	return &Handler{service: service, renewer: renewer}
}

// RegisterRoutes mounts the tenant endpoints. Both accept setup-scoped
// sessions, which is the only way a PendingSetup tenant leaves that state.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, pendingAllowed, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/tenant", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(pendingAllowed)

		r.Get("/", h.GetCurrent)
		r.With(adminOnly).Post("/setup", h.CompleteSetup)
	})
}

func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToResponse(t))
}

func (h *Handler) CompleteSetup(w http.ResponseWriter, r *http.Request) {
	var req CompleteSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	session := middleware.GetSession(r.Context())

	t, err := h.service.CompleteSetup(r.Context(), session.UserID, session.TenantID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp := SetupResponse{Tenant: ToResponse(t)}
	if h.renewer == nil {
		core.OKWithMessage(w, "tenant setup completed, sign in again to load entitlements", resp)
		return
	}

	renewed, err := h.renewer.RenewSession(r.Context(), session)
	if err != nil {
		slog.WarnContext(r.Context(), "session renewal after setup failed",
			"tenant_id", t.ID,
			"error", err,
		)
		core.OKWithMessage(w, "tenant setup completed, sign in again to load entitlements", resp)
		return
	}

	resp.Session = renewed
	core.OKWithMessage(w, "tenant setup completed", resp)
}
