// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
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

// RegisterRoutes mounts /users. Every route needs an active tenant; listing
// and managing other users also needs the admin role.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, activeTenant, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(activeTenant)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/", h.ListUsers)
			r.Post("/", h.Invite)
			r.Put("/{userID}/role", h.UpdateRole)
			r.Delete("/{userID}", h.Deactivate)
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

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateMe(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListUsersParams{
		Page:               parseIntQuery(r, "page", 1),
		PageSize:           parseIntQuery(r, "pageSize", 20),
		Search:             q.Get("search"),
		Role:               q.Get("role"),
		IncludeDeactivated: q.Get("includeDeactivated") == "true",
	}
	params.Normalize()

	users, total, err := h.service.ListTenantUsers(
		r.Context(),
		middleware.GetTenantID(r.Context()),
		params,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	session := middleware.GetSession(r.Context())

	user, err := h.service.Invite(r.Context(), session.UserID, session.TenantID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	session := middleware.GetSession(r.Context())

	user, err := h.service.UpdateRole(
		r.Context(),
		session.UserID,
		session.TenantID,
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	err := h.service.Deactivate(
		r.Context(),
		session.UserID,
		session.TenantID,
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
