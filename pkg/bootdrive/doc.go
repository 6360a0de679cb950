// Package bootdrive discovers boot drives carrying a supported PE
// environment and tracks which one the user is working against. Each mode
// has its own on-disk markers; a Cloud-PE drive doubles as a HotPE or
// Edgeless drive when the native markers are absent.
package bootdrive
