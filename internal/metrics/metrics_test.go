package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	mux := http.NewServeMux()
	m.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()
	m.Operation("Login", "OK")
	m.Operation("Login", "OK")
	m.Operation("StockEntries", "FORBIDDEN")
	m.Login("invalid")
	m.TenantMismatch()
	m.ObserveRequest("/graphql", http.StatusOK, 5*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `backoffice_graphql_operations_total{code="OK",operation="Login"} 2`)
	assert.Contains(t, body, `backoffice_graphql_operations_total{code="FORBIDDEN",operation="StockEntries"} 1`)
	assert.Contains(t, body, `backoffice_login_attempts_total{result="invalid"} 1`)
	assert.Contains(t, body, "backoffice_tenant_mismatch_total 1")
	assert.Contains(t, body, `backoffice_http_request_duration_seconds_count{path="/graphql",status="2xx"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Operation("Login", "OK")
	m.Login("success")
	m.TenantMismatch()
	m.ObserveRequest("/graphql", http.StatusOK, time.Millisecond)
}
