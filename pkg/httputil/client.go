package httputil

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewClient builds the shared HTTP client for catalog fetches and plugin
// downloads. The connection pool is sized to the configured download
// thread count and every request is traced via otelhttp. No global
// timeout: downloads run long and callers bound their requests with
// contexts.
func NewClient(threads int) *http.Client {
	if threads < 1 {
		threads = 1
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = threads
	transport.MaxConnsPerHost = threads

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
	}
}
