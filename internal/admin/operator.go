// AngelaMos | 2026
// operator.go

package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
)

// OperatorActor is recorded as the audit actor for operator-key requests,
// which carry no user identity.
const OperatorActor = "operator"

type TenantAdmin interface {
	Get(ctx context.Context, id string) (*tenant.Tenant, error)
	List(ctx context.Context, params tenant.ListParams) ([]tenant.Tenant, int, error)
	Suspend(ctx context.Context, actorID, tenantID string) (*tenant.Tenant, error)
	Deactivate(ctx context.Context, actorID, tenantID string) (*tenant.Tenant, error)
	Reactivate(ctx context.Context, actorID, tenantID string) (*tenant.Tenant, error)
}

type CatalogAdmin interface {
	ListCatalog(ctx context.Context) ([]entitlement.Product, error)
	CreateProduct(ctx context.Context, req entitlement.CreateProductRequest) (*entitlement.Product, error)
	SetLaunched(ctx context.Context, productID string, launched bool) error
	SetActivation(
		ctx context.Context,
		actorID, tenantID, productID string,
		active bool,
	) (*entitlement.TenantProduct, error)
	ListSubscriptions(ctx context.Context, tenantID string) ([]entitlement.Subscription, error)
	Subscribe(
		ctx context.Context,
		actorID, tenantID string,
		req entitlement.SubscribeRequest,
	) (*entitlement.Subscription, error)
	Cancel(ctx context.Context, actorID, tenantID, subscriptionID string) (*entitlement.Subscription, error)
}

type AuditReader interface {
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]audit.Entry, error)
}

func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := tenant.ListParams{
		Page:     intQuery(r, "page", 1),
		PageSize: intQuery(r, "pageSize", 20),
		Status:   tenant.Status(q.Get("status")),
		Search:   q.Get("search"),
	}
	params.Normalize()

	tenants, total, err := h.tenants.List(r.Context(), params)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, tenant.ToResponseList(tenants), params.Page, params.PageSize, total)
}

func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenants.Get(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, tenant.ToResponse(t))
}

func (h *Handler) SuspendTenant(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Suspend)
}

func (h *Handler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Deactivate)
}

func (h *Handler) ReactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tenants.Reactivate)
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, actorID, tenantID string) (*tenant.Tenant, error),
) {
	t, err := apply(r.Context(), OperatorActor, chi.URLParam(r, "tenantID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, tenant.ToResponse(t))
}

func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListCatalog(r.Context())
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req entitlement.CreateProductRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, p)
}

func (h *Handler) SetLaunched(w http.ResponseWriter, r *http.Request) {
	var req entitlement.SetLaunchedRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.catalog.SetLaunched(r.Context(), chi.URLParam(r, "productID"), req.Launched); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SetActivation(w http.ResponseWriter, r *http.Request) {
	var req entitlement.ActivationRequest
	if !decode(w, r, &req) {
		return
	}

	tp, err := h.catalog.SetActivation(
		r.Context(),
		OperatorActor,
		chi.URLParam(r, "tenantID"),
		chi.URLParam(r, "productID"),
		req.Active,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, entitlement.ToTenantProductResponse(tp))
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.catalog.ListSubscriptions(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, entitlement.ToSubscriptionResponseList(subs))
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req entitlement.SubscribeRequest
	if !decode(w, r, &req) {
		return
	}

	sub, err := h.catalog.Subscribe(r.Context(), OperatorActor, chi.URLParam(r, "tenantID"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, entitlement.ToSubscriptionResponse(sub))
}

func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.catalog.Cancel(
		r.Context(),
		OperatorActor,
		chi.URLParam(r, "tenantID"),
		chi.URLParam(r, "subscriptionID"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, entitlement.ToSubscriptionResponse(sub))
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.ListByTenant(r.Context(), chi.URLParam(r, "tenantID"), intQuery(r, "limit", 100))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if entries == nil {
		entries = []audit.Entry{}
	}
	core.OK(w, entries)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	return true
}

func intQuery(r *http.Request, key string, defaultVal int) int {
	parsed, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return defaultVal
	}
	return parsed
}
