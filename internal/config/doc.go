// Package config provides the host configuration for the preview
// engine: whether previewing is globally permitted, debounce and
// download tuning, and logging verbosity.
//
// Configuration loads from a TOML or YAML file (selected by extension),
// with environment variables overriding file values. A file watcher can
// reload the configuration live; observers are notified of changes so
// the application can enable or disable previewing without a restart.
//
// The engine itself never reads configuration directly. It consumes a
// narrow Settings view injected at construction, keeping the global
// flag an explicit dependency rather than ambient state.
package config
