// Package download fetches remote image bytes for the preview engine.
//
// Fetches run out-of-band on their own goroutines; completions are
// delivered back to the engine's logical thread through the event queue,
// never by direct callback. A fetch that fails (transport error, bad
// status, oversized body) is dropped silently: the engine's contract is
// that a missing preview is the only observable outcome.
package download

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dshills/mdpreview/internal/event"
)

const (
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how many bytes a fetch will read.
	DefaultMaxBodySize = 32 << 20 // 32 MiB
)

// HTTPFetcher downloads remote sources over HTTP and publishes
// DownloadCompleted messages to the event queue. Duplicate fetches for a
// key already in flight coalesce into the existing request.
type HTTPFetcher struct {
	client  *http.Client
	queue   *event.Queue
	timeout time.Duration
	maxBody int64
	logf    func(format string, args ...any)

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool

	wg sync.WaitGroup
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient sets the HTTP client used for fetches.
func WithClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxBodySize caps the number of response bytes read per fetch.
func WithMaxBodySize(limit int64) Option {
	return func(f *HTTPFetcher) {
		if limit > 0 {
			f.maxBody = limit
		}
	}
}

// WithLogf sets a debug log sink for dropped fetches.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(f *HTTPFetcher) {
		if logf != nil {
			f.logf = logf
		}
	}
}

// NewHTTPFetcher creates a fetcher that publishes completions to queue.
func NewHTTPFetcher(queue *event.Queue, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   http.DefaultClient,
		queue:    queue,
		timeout:  DefaultTimeout,
		maxBody:  DefaultMaxBodySize,
		logf:     func(string, ...any) {},
		inflight: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch starts an asynchronous download of key. A key already in flight
// is not fetched again; its pending completion covers this request too.
func (f *HTTPFetcher) Fetch(key string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if _, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		return
	}
	f.inflight[key] = struct{}{}
	f.wg.Add(1)
	f.mu.Unlock()

	go f.fetch(key)
}

// Wait blocks until every in-flight fetch has finished. Completions may
// still be pending on the queue when Wait returns.
func (f *HTTPFetcher) Wait() {
	f.wg.Wait()
}

// Close stops accepting new fetches and waits for in-flight ones.
func (f *HTTPFetcher) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.wg.Wait()
}

// fetch performs one download and publishes the result.
func (f *HTTPFetcher) fetch(key string) {
	defer func() {
		f.mu.Lock()
		delete(f.inflight, key)
		f.mu.Unlock()
		f.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		f.logf("download: bad url %q: %v", key, err)
		return
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logf("download: fetch %q: %v", key, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logf("download: fetch %q: status %d", key, resp.StatusCode)
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		f.logf("download: read %q: %v", key, err)
		return
	}
	if int64(len(data)) > f.maxBody {
		f.logf("download: %q exceeds %d bytes, dropped", key, f.maxBody)
		return
	}

	_ = f.queue.Publish(event.DownloadCompleted{Key: key, Data: data})
}
