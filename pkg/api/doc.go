// Package api exposes the plugin manager over HTTP for UI layers. It
// serves registry queries (categories, local lists, search, status),
// drive discovery, live download progress, the task registry, and the
// POST endpoints that trigger lifecycle operations.
package api
