// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tenant_platform"

// Login outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInactive = "tenant_inactive"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	LoginsTotal         *prometheus.CounterVec
	FederatedProvisions *prometheus.CounterVec
	TenantTransitions   *prometheus.CounterVec
	EntitlementChecks   *prometheus.CounterVec
	AuditWrites         *prometheus.CounterVec
	AuditQueueDepth     prometheus.Gauge
	CatalogCacheHits    prometheus.Counter
	CatalogCacheMisses  prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
	ThrottleDecisions   *prometheus.CounterVec
	gatherer            prometheus.Gatherer
}

// New registers the collectors on reg. Tests pass prometheus.NewRegistry()
// so repeated construction never collides with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		FederatedProvisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "federated_provisions_total",
			Help:      "First-time federated logins by result.",
		}, []string{"result"}), // result: created, raced, conflict
		TenantTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "transitions_total",
			Help:      "Tenant status transitions by target status and result.",
		}, []string{"to", "result"}),
		EntitlementChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "access_checks_total",
			Help:      "Product access checks by decision.",
		}, []string{"allowed"}),
		AuditWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "writes_total",
			Help:      "Audit log writes by status.",
		}, []string{"status"}), // status: written, failed, dropped
		AuditQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "queue_depth",
			Help:      "Audit entries waiting to be written.",
		}),
		CatalogCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "catalog_cache_hits_total",
			Help:      "Product catalog cache hits.",
		}),
		CatalogCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "catalog_cache_misses_total",
			Help:      "Product catalog cache misses.",
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		ThrottleDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "throttle_decisions_total",
			Help:      "Rate limit decisions by policy, decision and backend.",
		}, []string{"policy", "decision", "backend"}),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}

	return m
}

// NewDefault builds a registry carrying the Go and process collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLogin(method, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveProvision(result string) {
	if m == nil {
		return
	}
	m.FederatedProvisions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTransition(to, result string) {
	if m == nil {
		return
	}
	m.TenantTransitions.WithLabelValues(to, result).Inc()
}

func (m *Metrics) ObserveAccessCheck(allowed bool) {
	if m == nil {
		return
	}
	label := "false"
	if allowed {
		label = "true"
	}
	m.EntitlementChecks.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveAudit(status string) {
	if m == nil {
		return
	}
	m.AuditWrites.WithLabelValues(status).Inc()
}

func (m *Metrics) SetAuditQueueDepth(n int) {
	if m == nil {
		return
	}
	m.AuditQueueDepth.Set(float64(n))
}

func (m *Metrics) ObserveCatalogCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CatalogCacheHits.Inc()
		return
	}
	m.CatalogCacheMisses.Inc()
}

// ObserveThrottle counts one rate limit decision. backend is "redis" or
// "local" when the shared store was unreachable.
func (m *Metrics) ObserveThrottle(policy string, allowed bool, backend string) {
	if m == nil {
		return
	}
	decision := "limited"
	if allowed {
		decision = "allowed"
	}
	m.ThrottleDecisions.WithLabelValues(policy, decision, backend).Inc()
}
