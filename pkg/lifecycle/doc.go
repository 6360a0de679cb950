// Package lifecycle orchestrates plugin install, update, enable, disable,
// delete, and download operations. Long-running work executes on a shared
// worker pool; a task registry keyed by plugin identity and operation kind
// guarantees at most one in-flight operation per key. Every mutating
// operation that changes the plugin directory triggers a rescan so the
// registry snapshot stays consistent.
package lifecycle
