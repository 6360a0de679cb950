// Package plugin defines the canonical plugin model shared by the remote
// catalog and the local filesystem, plus the per-mode filename codec that
// maps between Plugin values and on-disk file names.
//
// Three ecosystems share one Plugin shape. Remote entries come from the
// catalog fetcher and carry a download link; local entries come from the
// directory scanner and carry an on-disk file name. A plugin's identity is
// (name, author); the dedup key additionally includes version and size.
package plugin
