// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /auth. limiter guards the credential endpoints;
// /me accepts pending-setup sessions so the client can drive setup.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, pendingAllowed, limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter)

			r.Post("/login", h.Login)
			r.Post("/federated", h.FederatedLogin)
			r.Post("/register", h.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(pendingAllowed)

			r.Get("/me", h.GetMe)
			r.Post("/refresh", h.Refresh)
		})
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.ValidationFailed(w, core.ValidationMessages(err))
		return false
	}

	return true
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), Credentials{
		Kind:     KindLocal,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, "login successful", resp)
}

func (h *Handler) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	var req FederatedLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), Credentials{
		Kind:  KindFederated,
		Token: req.Token,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	message := "login successful"
	if resp.Tenant.Status == tenant.StatusPendingSetup {
		message = "tenant setup required"
	}
	core.OKWithMessage(w, message, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Me(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Refresh(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, "session refreshed", resp)
}
