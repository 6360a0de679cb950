// Package config loads the daemon's configuration from environment
// variables. Every setting has a PLUGINMART_-prefixed variable and a
// sensible default; only the plugin mode is mandatory.
package config
