package config

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	// ErrUnsupportedFormat indicates the config file extension is not
	// recognized.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrWatcherRunning indicates Watch was called twice.
	ErrWatcherRunning = errors.New("config watcher already running")
)

// ParseError wraps a file parsing failure with its source path.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
