package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObservePortal("qv6i-rri7", 200, 120*time.Millisecond, 42)
	m.ObservePortal("qv6i-rri7", 500, time.Second, 0)
	m.ObserveCompile("juse-v5tw", []string{"date_range", "geo"})
	m.ObserveCategory("theft")
	m.ObserveCategory("theft")
	m.ObserveSnapshot(17)
	m.ObserveHTTP("GET", "/api/v1/health", 200, 5*time.Millisecond)

	out := scrape(t, m)
	assert.Contains(t, out, `incidents_portal_requests_total{dataset="qv6i-rri7",status="200"} 1`)
	assert.Contains(t, out, `incidents_portal_requests_total{dataset="qv6i-rri7",status="500"} 1`)
	assert.Contains(t, out, `incidents_records_fetched_total{dataset="qv6i-rri7"} 42`)
	assert.Contains(t, out, `incidents_filters_omitted_total{dataset="juse-v5tw",filter="geo"} 1`)
	assert.Contains(t, out, `incidents_offenses_categorized_total{category="theft"} 2`)
	assert.Contains(t, out, `incidents_snapshot_active_calls 17`)
	assert.Contains(t, out, `incidents_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveCategory("drug")
	assert.Contains(t, scrape(t, a), `category="drug"`)
	assert.NotContains(t, scrape(t, b), `category="drug"`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePortal("x", 200, time.Millisecond, 1)
		m.ObserveCompile("x", []string{"geo"})
		m.ObserveCategory("other")
		m.ObserveSnapshot(1)
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
}
