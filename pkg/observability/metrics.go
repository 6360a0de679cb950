package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Catalog metrics
	CatalogFetchesTotal  *prometheus.CounterVec
	CatalogFetchDuration *prometheus.HistogramVec

	// Scanner metrics
	ScanDuration *prometheus.HistogramVec
	ScanErrors   *prometheus.CounterVec

	// Download metrics
	DownloadBytesTotal *prometheus.CounterVec
	DownloadDuration   *prometheus.HistogramVec
	DownloadErrors     *prometheus.CounterVec

	// Lifecycle metrics
	LifecycleOpsTotal *prometheus.CounterVec
	TasksInFlight     prometheus.Gauge

	// Search metrics
	SearchCacheHitsTotal   prometheus.Counter
	SearchCacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmart_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginmart_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Catalog metrics
		CatalogFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmart_catalog_fetches_total",
				Help: "Total number of remote catalog fetches",
			},
			[]string{"mode", "status"},
		),
		CatalogFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginmart_catalog_fetch_duration_seconds",
				Help:    "Catalog fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		// Scanner metrics
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginmart_scan_duration_seconds",
				Help:    "Local plugin directory scan duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"mode"},
		),
		ScanErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmart_scan_errors_total",
				Help: "Total number of failed local scans",
			},
			[]string{"mode"},
		),

		// Download metrics
		DownloadBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmart_download_bytes_total",
				Help: "Total bytes transferred by the download engine",
			},
			[]string{"mode"},
		),
		DownloadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginmart_download_duration_seconds",
				Help:    "Download duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"mode"},
		),
		DownloadErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmart_download_errors_total",
				Help: "Total number of failed downloads",
			},
			[]string{"mode"},
		),

		// Lifecycle metrics
		LifecycleOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmart_lifecycle_operations_total",
				Help: "Total number of lifecycle operations",
			},
			[]string{"kind", "outcome"},
		),
		TasksInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginmart_tasks_in_flight",
				Help: "Number of lifecycle tasks currently running",
			},
		),

		// Search metrics
		SearchCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pluginmart_search_cache_hits_total",
				Help: "Total number of search cache hits",
			},
		),
		SearchCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pluginmart_search_cache_misses_total",
				Help: "Total number of search cache misses",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CatalogFetchesTotal,
		m.CatalogFetchDuration,
		m.ScanDuration,
		m.ScanErrors,
		m.DownloadBytesTotal,
		m.DownloadDuration,
		m.DownloadErrors,
		m.LifecycleOpsTotal,
		m.TasksInFlight,
		m.SearchCacheHitsTotal,
		m.SearchCacheMissesTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the /metrics endpoint handler for the registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
