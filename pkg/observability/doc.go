// Package observability provides Prometheus metrics for the plugin
// manager core: catalog fetches, local scans, downloads, lifecycle
// operations, and the in-flight task gauge, plus HTTP server
// instrumentation and the /metrics endpoint.
package observability
