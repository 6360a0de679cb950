package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersAll(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	require.NotNil(t, m)

	// Touch one metric of each family so Gather returns them.
	m.CatalogFetchesTotal.WithLabelValues("cloudpe", "success").Inc()
	m.LifecycleOpsTotal.WithLabelValues("install", "success").Inc()
	m.TasksInFlight.Set(2)
	m.DownloadBytesTotal.WithLabelValues("hotpe").Add(1024)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogFetchesTotal.WithLabelValues("cloudpe", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LifecycleOpsTotal.WithLabelValues("install", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TasksInFlight))
	assert.Equal(t, float64(1024), testutil.ToFloat64(m.DownloadBytesTotal.WithLabelValues("hotpe")))
}

func TestNewMetricsDuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)
	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/categories", "404")))
}

func TestMetricsHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.TasksInFlight.Set(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pluginmart_tasks_in_flight 1")
}
