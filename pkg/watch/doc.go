// Package watch observes a plugin directory with fsnotify and coalesces
// bursts of file events into a single rescan callback.
package watch
