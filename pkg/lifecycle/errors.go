package lifecycle

import "errors"

var (
	// ErrTaskInFlight is returned when an operation of the same kind is
	// already running for the plugin identity.
	ErrTaskInFlight = errors.New("operation already in progress for this plugin")

	// ErrNoBootRoot is returned when no boot drive is available to
	// install into.
	ErrNoBootRoot = errors.New("no boot drive selected")

	// ErrNoDownloadDir is returned by DownloadTo when neither the caller
	// nor the configuration provides a destination directory.
	ErrNoDownloadDir = errors.New("no download directory configured")

	// ErrNotFound is returned when an operation targets a local plugin
	// file that does not exist.
	ErrNotFound = errors.New("plugin file does not exist")
)
