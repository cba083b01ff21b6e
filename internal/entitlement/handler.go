// AngelaMos | 2026
// handler.go

package entitlement

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, activeTenant func(http.Handler) http.Handler,
) {
	r.Route("/entitlements", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(activeTenant)

		r.Get("/", h.List)
		r.Get("/{productID}/access", h.Access)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entitlements, err := h.resolver.ResolveEntitlements(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, entitlements)
}

func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	allowed, err := h.resolver.HasAccess(r.Context(), middleware.GetTenantID(r.Context()), productID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, AccessResponse{ProductID: productID, Allowed: allowed})
}
