// Package catalog fetches and normalizes the remote plugin catalog.
//
// Two wire schemas exist. CloudPE and Edgeless answer with a
// {code, message, data} envelope whose entries already carry the canonical
// plugin fields. HotPE answers with a {state, data} envelope whose entries
// are raw directory listings (full file name, numeric or string size, epoch
// or string mtime) that are decoded into the canonical model here. Both
// paths deduplicate within each category, first occurrence wins.
//
// Failures are typed: *NetworkError for transport problems, *ProtocolError
// for malformed or non-success responses. Nothing is retried except the
// bounded connectivity probe.
package catalog
