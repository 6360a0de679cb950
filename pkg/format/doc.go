// Package format renders byte counts and epoch timestamps into the
// human-readable strings used throughout the plugin catalog.
package format
