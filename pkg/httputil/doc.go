// Package httputil provides JSON request/response helpers for the API
// handlers and the instrumented HTTP client used for catalog fetches and
// downloads.
package httputil
