// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const checkBudget = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is one named readiness check. A nil Checker reports unhealthy.
// An Optional dependency that fails degrades the report without failing it.
type Dependency struct {
	Name     string
	Checker  Checker
	Optional bool
}

type phase int32

const (
	phaseServing phase = iota
	phaseDraining
	phaseStopped
)

type Handler struct {
	deps  []Dependency
	phase atomic.Int32
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// SetReady moves the process out of (or back into) rotation while it keeps
// answering liveness.
func (h *Handler) SetReady(ready bool) {
	if ready {
		h.phase.CompareAndSwap(int32(phaseDraining), int32(phaseServing))
		return
	}
	h.phase.CompareAndSwap(int32(phaseServing), int32(phaseDraining))
}

func (h *Handler) SetShutdown(shutdown bool) {
	if shutdown {
		h.phase.Store(int32(phaseStopped))
		return
	}
	h.phase.Store(int32(phaseServing))
}

func (h *Handler) current() phase {
	return phase(h.phase.Load())
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.current() == phaseStopped {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}
	writeStatus(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch h.current() {
	case phaseStopped:
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	case phaseDraining:
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "draining"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkBudget)
	defer cancel()

	checks := h.checkAll(ctx)

	resp := ReadinessResponse{Status: "ok", Checks: checks}
	code := http.StatusOK
	for _, c := range checks {
		switch {
		case c.Healthy:
		case c.Required:
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		case resp.Status == "ok":
			resp.Status = "degraded"
		}
	}

	writeStatus(w, code, resp)
}

func (h *Handler) checkAll(ctx context.Context) []Check {
	checks := make([]Check, len(h.deps))

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = run(ctx, dep)
		}()
	}
	wg.Wait()

	return checks
}

func run(ctx context.Context, dep Dependency) Check {
	c := Check{Name: dep.Name, Required: !dep.Optional}

	if dep.Checker == nil {
		c.Message = "not configured"
		return c
	}

	start := time.Now()
	err := dep.Checker.Ping(ctx)
	c.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		c.Message = "unreachable"
		return c
	}
	c.Healthy = true
	return c
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(body)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks"`
}

type Check struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Required  bool   `json:"required"`
	LatencyMS int64  `json:"latencyMs"`
	Message   string `json:"message,omitempty"`
}
