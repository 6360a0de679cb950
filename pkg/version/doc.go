// Package version implements the loose version ordering used to decide
// whether a locally installed plugin is behind its catalog entry.
//
// Version strings are not assumed to be semver. Each string is tokenized
// into digit runs (numeric tokens) and letter runs (text tokens); any other
// character only separates runs. Numeric tokens order numerically, text
// tokens lexicographically, and a numeric token always sorts before a text
// token, so "2.0" > "2.0-beta".
package version
