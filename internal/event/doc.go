// Package event provides the ordered message queue that serializes all
// preview engine work onto a single logical thread.
//
// Producers (debounce timers, download goroutines, the embedding host)
// publish messages from any goroutine; a single drain loop delivers them
// to subscribers in publish order. The ordering guarantee is what lets
// the engine mutate the document without locks: every mutation happens
// inside a drained handler, and a scan triggered by a completed download
// is always delivered after the handler that registered the downloaded
// image in the cache.
//
// The queue is unbounded. Publish never blocks and never drops; the cost
// of a burst is memory, not lost reconciliation work.
package event
