// Package download streams HTTP responses to disk with live progress.
//
// An Engine keeps one progress record per running transfer, keyed by the
// caller-supplied transfer id, safe to read while transfers run.
// Concurrent transfers are bounded by a weighted semaphore sized from the
// configured download thread count. Transfers are not resumable; a failed
// transfer leaves the partial file in place for the caller to clean up.
package download
