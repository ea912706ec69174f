package config

import (
	"sync"
)

// Config provides access to the application configuration: load,
// runtime updates, change notification, and optional live reload.
type Config struct {
	mu       sync.RWMutex
	settings Settings
	path     string

	notifier notifier
	watcher  *watcher
}

// Option configures a Config instance.
type Option func(*Config)

// WithPath sets the configuration file path.
func WithPath(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// New creates a Config with built-in defaults. Call Load to read the
// configured file and environment overrides.
func New(opts ...Option) *Config {
	c := &Config{settings: DefaultSettings()}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load reads the configuration file (if any) and applies environment
// overrides. It can be called again to reload; observers are notified
// when a reload changes anything.
func (c *Config) Load() error {
	s := DefaultSettings()
	if c.path != "" {
		if err := loadFile(c.path, &s); err != nil {
			return err
		}
	}
	applyEnv(&s)

	c.mu.Lock()
	old := c.settings
	c.settings = s
	c.mu.Unlock()

	if old != s {
		c.notifier.notify(Change{Type: ChangeReload, Old: old, New: s})
	}
	return nil
}

// Settings returns a copy of the current settings tree.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// PreviewEnabled reports whether previewing is globally permitted.
// This is the view the preview engine consults on every trigger.
func (c *Config) PreviewEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Preview.Enabled
}

// SetPreviewEnabled updates the global preview flag at runtime and
// notifies observers.
func (c *Config) SetPreviewEnabled(enabled bool) {
	c.mu.Lock()
	old := c.settings
	if old.Preview.Enabled == enabled {
		c.mu.Unlock()
		return
	}
	c.settings.Preview.Enabled = enabled
	updated := c.settings
	c.mu.Unlock()

	c.notifier.notify(Change{
		Type: ChangeSet,
		Path: "preview.enabled",
		Old:  old,
		New:  updated,
	})
}

// OnChange registers an observer for configuration changes. Observers
// run on the goroutine that triggered the change.
func (c *Config) OnChange(fn Observer) {
	c.notifier.subscribe(fn)
}

// Watch starts live reload of the configuration file. Changes written
// to the file are loaded and fanned out to observers. No-op when no
// path is configured.
func (c *Config) Watch() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.mu.Unlock()
		return ErrWatcherRunning
	}
	w, err := newWatcher(c.path, func() {
		// Reload errors leave the previous settings in place.
		_ = c.Load()
	})
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.watcher = w
	c.mu.Unlock()
	return nil
}

// Close stops the file watcher if one is running.
func (c *Config) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.close()
}
