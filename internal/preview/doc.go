// Package preview implements the synchronization engine that keeps
// rendered image previews consistent with an editable document.
//
// Each document line containing exactly one markdown image reference
// gets one engine-generated artifact block directly after it, holding a
// placeholder rune bound to the resolved image. The engine reconciles
// the whole document in a single linear pass: orphaned artifact blocks
// are removed, corrupted lines are stripped of stray placeholder runes,
// stale artifacts are rewritten in place, and missing ones are inserted.
// The pass is idempotent; running it twice without intervening edits
// changes nothing.
//
// Concurrency model: the engine is single-threaded by design. All state
// transitions and document mutations happen on the goroutine draining
// the event queue the engine is constructed with. Debounce expiry and
// download completions arrive as queue messages, never as direct
// cross-thread calls. Re-entrant triggers during an active scan (for
// example a host callback disabling previewing from inside a change
// notification) are latched and serviced after the scan completes.
//
// Failures are never surfaced. An unreadable or undecodable image, an
// ambiguous line, or a download that never finishes all produce the same
// observable result: no preview for that block.
package preview
