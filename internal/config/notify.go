package config

import "sync"

// ChangeType classifies a configuration change.
type ChangeType int

const (
	// ChangeSet indicates a single setting was updated at runtime.
	ChangeSet ChangeType = iota

	// ChangeReload indicates the whole configuration was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one configuration change event.
type Change struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the dot-separated setting path ("preview.enabled").
	// Empty for reload events.
	Path string

	// Old is the settings tree before the change.
	Old Settings

	// New is the settings tree after the change.
	New Settings
}

// Observer is called when configuration changes.
type Observer func(change Change)

// notifier fans changes out to observers.
type notifier struct {
	mu        sync.RWMutex
	observers []Observer
}

// subscribe registers an observer.
func (n *notifier) subscribe(fn Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// notify delivers a change to every observer, outside the config lock.
func (n *notifier) notify(change Change) {
	n.mu.RLock()
	observers := make([]Observer, len(n.observers))
	copy(observers, n.observers)
	n.mu.RUnlock()

	for _, fn := range observers {
		fn(change)
	}
}
