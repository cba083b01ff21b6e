// AngelaMos | 2026
// handler.go

package branding

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

// multipart overhead allowed on top of the file size limit
const formOverhead = 64 << 10

type Handler struct {
	service       *Service
	resolver      *Resolver
	maxUploadSize int64
}

func NewHandler(service *Service, resolver *Resolver, maxUploadSize int64) *Handler {
	return &Handler{
		service:       service,
		resolver:      resolver,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, activeTenant, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/branding", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(activeTenant)

		r.Get("/", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Put("/", h.Upsert)
			r.Post("/assets/{kind}", h.UploadAsset)
		})
	})
}

// RegisterPublicRoutes mounts the unauthenticated lookup used by login pages
// served from a tenant's custom domain.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/public/branding", h.GetByDomain)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wl, err := h.resolver.ResolveBranding(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToInfo(wl))
}

func (h *Handler) GetByDomain(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		domain = r.Host
	}

	wl, err := h.resolver.ResolveByDomain(r.Context(), domain)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToInfo(wl))
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	session := middleware.GetSession(r.Context())

	wl, err := h.service.Upsert(r.Context(), session.UserID, session.TenantID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToInfo(wl))
}

func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		core.BadRequest(w, "invalid or oversized multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		core.BadRequest(w, "file field is required")
		return
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // read-only upload handle
	}()

	session := middleware.GetSession(r.Context())
	kind := AssetKind(chi.URLParam(r, "kind"))

	url, err := h.service.UploadAsset(
		r.Context(),
		session.UserID,
		session.TenantID,
		kind,
		file,
		header.Size,
		header.Filename,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, AssetResponse{Kind: kind, URL: url})
}
