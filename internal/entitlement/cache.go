// AngelaMos | 2026
// cache.go

package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/tenant-platform/internal/metrics"
)

const catalogCacheKey = "catalog:products:v1"

// CatalogLoader is the slice of Repository the cache reads through.
type CatalogLoader interface {
	ListCatalog(ctx context.Context) ([]Product, error)
}

// CatalogCache keeps the shared product catalog in Redis. Tenant rows are
// never cached. A nil client or an unreachable Redis degrades to reading the
// database directly.
type CatalogCache struct {
	rdb     *redis.Client
	loader  CatalogLoader
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewCatalogCache(
	rdb *redis.Client,
	loader CatalogLoader,
	ttl time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *CatalogCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCache{
		rdb:     rdb,
		loader:  loader,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

func (c *CatalogCache) Products(ctx context.Context) ([]Product, error) {
	if c.rdb == nil || c.ttl <= 0 {
		return c.loader.ListCatalog(ctx)
	}

	raw, err := c.rdb.Get(ctx, catalogCacheKey).Bytes()
	switch {
	case err == nil:
		var products []Product
		if jsonErr := json.Unmarshal(raw, &products); jsonErr == nil {
			c.metrics.ObserveCatalogCache(true)
			return products, nil
		}
		c.logger.Warn("discarding corrupt catalog cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", "error", err)
	}

	c.metrics.ObserveCatalogCache(false)

	products, err := c.loader.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := c.rdb.Set(ctx, catalogCacheKey, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", "error", err)
		}
	}

	return products, nil
}

// Product looks a single entry up through the cached catalog.
func (c *CatalogCache) Product(ctx context.Context, id string) (*Product, bool, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, false, err
	}

	for i := range products {
		if products[i].ID == id {
			return &products[i], true, nil
		}
	}

	return nil, false, nil
}

// Invalidate drops the cached catalog after a catalog write.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, catalogCacheKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidation failed", "error", err)
	}
}
