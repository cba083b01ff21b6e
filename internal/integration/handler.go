// AngelaMos | 2026
// handler.go

package integration

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /integrations for tenant admins. Secret values are
// write-only over HTTP.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, activeTenant, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/integrations", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(activeTenant)
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Put("/{provider}", h.Rotate)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, items)
}

func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	var req RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	session := middleware.GetSession(r.Context())

	summary, err := h.service.Rotate(
		r.Context(),
		session.UserID,
		session.TenantID,
		chi.URLParam(r, "provider"),
		req,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, summary)
}
