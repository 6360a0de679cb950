// Package registry holds the in-memory view of the plugin world: the last
// fetched catalog, the last scanned local snapshots, and the identity index
// correlating the two.
//
// All state lives behind one reader-writer lock. Readers get copies and
// never observe a half-replaced collection; writers replace whole snapshots
// in a short exclusive section and never hold the lock across network or
// file I/O. Search results are memoized in a small LRU that is purged on
// every snapshot replacement.
package registry
