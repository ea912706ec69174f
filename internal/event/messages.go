package event

// Message is any value delivered through the queue. Subscribers type-switch
// on the concrete message types below.
type Message any

// ScanRequested asks the engine to run a full preview pass. Published by
// the debounce timer and after download completions.
type ScanRequested struct{}

// ContentChanged mirrors the document host's change notification.
// A delta of (0, 0) characters is a formatting-only change and is ignored
// by the engine.
type ContentChanged struct {
	// Position is the offset at which the change occurred.
	Position int

	// CharsRemoved is the number of characters removed.
	CharsRemoved int

	// CharsAdded is the number of characters added.
	CharsAdded int
}

// DownloadCompleted carries the raw bytes of a finished remote fetch.
type DownloadCompleted struct {
	// Key is the normalized source key the fetch was issued for.
	Key string

	// Data is the response body. Decode failures downstream are dropped
	// silently; the fetcher does not inspect the payload.
	Data []byte
}

// EnableRequested asks the engine to enable previewing.
type EnableRequested struct{}

// DisableRequested asks the engine to disable previewing and clear
// all artifact blocks.
type DisableRequested struct{}

// RefreshRequested asks the engine to drop its cache and rebuild every
// preview from scratch.
type RefreshRequested struct{}

// StatusChanged announces that the visible preview state changed. Fired
// once per completed (non-deferred) scan or clear.
type StatusChanged struct{}
