// AngelaMos | 2026
// stats.go

package admin

import (
	"context"
	"net/http"
	"runtime"
	"sync"

	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
)

var tenantStatuses = []tenant.Status{
	tenant.StatusPendingSetup,
	tenant.StatusActive,
	tenant.StatusSuspended,
	tenant.StatusInactive,
}

// SystemStatsResponse is the operator overview of the backing stores and the
// tenant population.
type SystemStatsResponse struct {
	Dependencies []DependencyStatus    `json:"dependencies"`
	Database     *DBPoolStats          `json:"database,omitempty"`
	Redis        *RedisPoolStats       `json:"redis,omitempty"`
	Tenants      map[tenant.Status]int `json:"tenants"`
	Runtime      RuntimeStats          `json:"runtime"`
}

type DependencyStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"maxOpenConnections"`
	OpenConnections    int    `json:"openConnections"`
	InUse              int    `json:"inUse"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"waitCount"`
	WaitDuration       string `json:"waitDuration"`
	MaxLifetimeClosed  int64  `json:"maxLifetimeClosed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"totalConns"`
	IdleConns  uint32 `json:"idleConns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCpu"`
	HeapAlloc    uint64 `json:"heapAllocBytes"`
	Sys          uint64 `json:"sysBytes"`
	NumGC        uint32 `json:"numGc"`
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.tenantCounts(ctx)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, SystemStatsResponse{
		Dependencies: h.checkAll(ctx),
		Database:     h.databasePool(),
		Redis:        h.redisPool(),
		Tenants:      counts,
		Runtime:      readRuntime(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.databasePool())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.redisPool())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntime())
}

func (h *Handler) checkAll(ctx context.Context) []DependencyStatus {
	out := make([]DependencyStatus, len(h.pingers))

	var wg sync.WaitGroup
	for i, p := range h.pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = DependencyStatus{Name: p.name, Healthy: true}
			if err := p.ping(ctx); err != nil {
				out[i].Healthy = false
				out[i].Error = err.Error()
			}
		}()
	}
	wg.Wait()

	return out
}

// tenantCounts reads the filtered total for each status with a one-row page.
func (h *Handler) tenantCounts(ctx context.Context) (map[tenant.Status]int, error) {
	counts := make(map[tenant.Status]int, len(tenantStatuses))
	for _, s := range tenantStatuses {
		_, total, err := h.tenants.List(ctx, tenant.ListParams{Page: 1, PageSize: 1, Status: s})
		if err != nil {
			return nil, err
		}
		counts[s] = total
	}
	return counts, nil
}

func (h *Handler) databasePool() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	s := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration.String(),
		MaxLifetimeClosed:  s.MaxLifetimeClosed,
	}
}

func (h *Handler) redisPool() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	s := h.redisStats()
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}

func readRuntime() RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		HeapAlloc:    ms.HeapAlloc,
		Sys:          ms.Sys,
		NumGC:        ms.NumGC,
	}
}
