// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLogin("local", OutcomeSuccess)
	m.ObserveLogin("local", OutcomeSuccess)
	m.ObserveLogin("federated", OutcomeInactive)
	m.ObserveAccessCheck(true)
	m.ObserveAudit("dropped")
	m.ObserveCatalogCache(false)
	m.ObserveThrottle("auth", false, "local")

	out := scrape(t, m)
	assert.Contains(t, out, `tenant_platform_auth_logins_total{method="local",outcome="success"} 2`)
	assert.Contains(t, out, `tenant_platform_auth_logins_total{method="federated",outcome="tenant_inactive"} 1`)
	assert.Contains(t, out, `tenant_platform_entitlement_access_checks_total{allowed="true"} 1`)
	assert.Contains(t, out, `tenant_platform_audit_writes_total{status="dropped"} 1`)
	assert.Contains(t, out, `tenant_platform_entitlement_catalog_cache_misses_total 1`)
	assert.Contains(t, out, `tenant_platform_http_throttle_decisions_total{backend="local",decision="limited",policy="auth"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLogin("local", OutcomeError)
		m.ObserveTransition("active", "ok")
		m.SetAuditQueueDepth(3)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveProvision("created")

	assert.Contains(t, scrape(t, m), "tenant_platform_auth_federated_provisions_total")
}
