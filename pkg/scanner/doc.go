// Package scanner discovers installed plugin files in a mode's plugin
// directory and classifies them as enabled or disabled.
//
// A scan is non-recursive and only looks at plain files. Files whose names
// do not match the mode's grammar are skipped silently; a directory read
// failure aborts the whole scan so callers can keep their previous
// snapshot. Sizes always come from the actual file length, never from the
// file name.
package scanner
