// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	pingers    []pinger
	tenants    TenantAdmin
	catalog    CatalogAdmin
	audit      AuditReader
}

type pinger struct {
	name string
	ping func(ctx context.Context) error
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
	Tenants    TenantAdmin
	Catalog    CatalogAdmin
	Audit      AuditReader
}

func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		tenants:    cfg.Tenants,
		catalog:    cfg.Catalog,
		audit:      cfg.Audit,
	}
	if cfg.DBPing != nil {
		h.pingers = append(h.pingers, pinger{name: "database", ping: cfg.DBPing})
	}
	if cfg.RedisPing != nil {
		h.pingers = append(h.pingers, pinger{name: "redis", ping: cfg.RedisPing})
	}
	return h
}

// RegisterRoutes mounts the platform operator surface under /admin. It is
// not tenant scoped and is guarded only by operatorOnly.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	operatorOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(operatorOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)

			r.Route("/{tenantID}", func(r chi.Router) {
				r.Get("/", h.GetTenant)
				r.Post("/suspend", h.SuspendTenant)
				r.Post("/deactivate", h.DeactivateTenant)
				r.Post("/reactivate", h.ReactivateTenant)

				r.Put("/products/{productID}", h.SetActivation)
				r.Get("/subscriptions", h.ListSubscriptions)
				r.Post("/subscriptions", h.Subscribe)
				r.Delete("/subscriptions/{subscriptionID}", h.CancelSubscription)
				r.Get("/audit", h.ListAudit)
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.ListCatalog)
			r.Post("/", h.CreateProduct)
			r.Put("/{productID}/launch", h.SetLaunched)
		})
	})
}
