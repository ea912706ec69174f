package preview

import (
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/mdpreview/internal/document"
	"github.com/dshills/mdpreview/internal/event"
	"github.com/dshills/mdpreview/internal/imgutil"
	"github.com/dshills/mdpreview/internal/preview/cache"
	"github.com/dshills/mdpreview/internal/preview/extract"
)

// Placeholder is the rune an artifact block's text consists of: the
// Unicode object replacement character.
const Placeholder = '\uFFFC'

// DefaultDebounce is the interval edits must stay quiet before a scan runs.
const DefaultDebounce = 300 * time.Millisecond

// Model is the document contract the engine operates on. Mutating
// operations return the successor block so the scan can resume without
// touching live cursors.
type Model interface {
	First() (document.Block, bool)
	Next(id uuid.UUID) (document.Block, bool)
	Previous(id uuid.UUID) (document.Block, bool)
	BlockByID(id uuid.UUID) (document.Block, bool)
	InsertAfter(id uuid.UUID, text string) (document.Block, error)
	Remove(id uuid.UUID) (document.Block, bool)
	SetText(id uuid.UUID, text string) error
	SetArtifact(id uuid.UUID, a document.Artifact)
	Artifact(id uuid.UUID) (document.Artifact, bool)
	Modified() bool
	SetModified(modified bool)
}

// Extractor finds at most one image reference in a line.
type Extractor interface {
	Reference(line string) (string, bool)
}

// Resolver maps a raw reference to a source key.
type Resolver interface {
	Resolve(ref string) string
}

// Fetcher starts asynchronous downloads of remote source keys.
type Fetcher interface {
	Fetch(key string)
}

// Settings exposes the host configuration the engine consults.
type Settings interface {
	// PreviewPermitted reports whether previewing is globally allowed.
	PreviewPermitted() bool
}

// SettingsFunc adapts a function to the Settings interface.
type SettingsFunc func() bool

// PreviewPermitted implements Settings.
func (f SettingsFunc) PreviewPermitted() bool { return f() }

// Engine keeps a document's image previews synchronized with its text.
//
// The engine's state machine (enabled, scanning, pending latches) is not
// internally locked: every method that touches it must run on the
// engine's logical thread, which is the goroutine draining the event
// queue. The engine subscribes itself to the queue at construction.
type Engine struct {
	doc       Model
	extractor Extractor
	resolver  Resolver
	cache     *cache.Cache
	fetcher   Fetcher
	decode    imgutil.DecodeFunc
	settings  Settings
	queue     *event.Queue
	statusFn  func()
	logf      func(format string, args ...any)

	debounce  time.Duration
	maxWidth  int
	maxHeight int

	timerMu sync.Mutex
	timer   *time.Timer

	// Single-thread state machine; see the Engine doc comment.
	enabled        bool
	scanning       bool
	pendingClear   bool
	pendingRefresh bool

	stats engineStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtractor replaces the default goldmark-based extractor.
func WithExtractor(e Extractor) Option {
	return func(eng *Engine) {
		if e != nil {
			eng.extractor = e
		}
	}
}

// WithFetcher sets the downloader for remote sources. Without one,
// remote references are simply never previewed.
func WithFetcher(f Fetcher) Option {
	return func(eng *Engine) {
		eng.fetcher = f
	}
}

// WithDecodeFunc replaces the default image decoder.
func WithDecodeFunc(decode imgutil.DecodeFunc) Option {
	return func(eng *Engine) {
		if decode != nil {
			eng.decode = decode
		}
	}
}

// WithSettings sets the host configuration view.
func WithSettings(s Settings) Option {
	return func(eng *Engine) {
		if s != nil {
			eng.settings = s
		}
	}
}

// WithDebounce sets the edit-quiet interval before a scan runs.
func WithDebounce(d time.Duration) Option {
	return func(eng *Engine) {
		if d > 0 {
			eng.debounce = d
		}
	}
}

// WithFitBounds caps decoded images to the given dimensions before they
// enter the cache. Zero disables fitting on that axis.
func WithFitBounds(maxWidth, maxHeight int) Option {
	return func(eng *Engine) {
		eng.maxWidth = maxWidth
		eng.maxHeight = maxHeight
	}
}

// WithStatusFunc sets the callback fired once per completed scan or clear.
func WithStatusFunc(fn func()) Option {
	return func(eng *Engine) {
		eng.statusFn = fn
	}
}

// WithLogf sets a debug log sink.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(eng *Engine) {
		if logf != nil {
			eng.logf = logf
		}
	}
}

// NewEngine creates an engine for the given document. The queue is the
// engine's logical thread: the engine subscribes its message handler and
// expects the host to drain the queue on a single goroutine.
func NewEngine(doc Model, resolver Resolver, queue *event.Queue, opts ...Option) *Engine {
	e := &Engine{
		doc:       doc,
		extractor: extract.NewExtractor(),
		resolver:  resolver,
		cache:     cache.New(),
		decode:    imgutil.Decode,
		settings:  SettingsFunc(func() bool { return true }),
		queue:     queue,
		logf:      func(string, ...any) {},
		debounce:  DefaultDebounce,
		enabled:   true,
	}

	for _, opt := range opts {
		opt(e)
	}

	queue.Subscribe(e.handleMessage)
	return e
}

// handleMessage routes queue messages onto the engine's state machine.
func (e *Engine) handleMessage(msg event.Message) {
	switch m := msg.(type) {
	case event.ScanRequested:
		e.scanRequested()
	case event.ContentChanged:
		e.HandleContentChange(m.Position, m.CharsRemoved, m.CharsAdded)
	case event.DownloadCompleted:
		e.onDownloaded(m.Key, m.Data)
	case event.EnableRequested:
		e.Enable()
	case event.DisableRequested:
		e.Disable()
	case event.RefreshRequested:
		e.Refresh()
	}
}

// scanRequested services a debounce expiry. When the host configuration
// no longer permits previewing, an enabled engine disables itself
// instead of scanning.
func (e *Engine) scanRequested() {
	if !e.settings.PreviewPermitted() {
		if e.enabled {
			e.Disable()
		}
		return
	}

	if !e.enabled {
		return
	}

	e.previewImages()
}

// HandleContentChange reacts to a host change notification by
// restarting the debounce timer. No-op deltas are ignored.
func (e *Engine) HandleContentChange(_, charsRemoved, charsAdded int) {
	if charsRemoved == 0 && charsAdded == 0 {
		return
	}

	e.restartTimer()
}

// Enable turns previewing on and, if globally permitted, schedules a scan.
func (e *Engine) Enable() {
	e.enabled = true

	if e.settings.PreviewPermitted() {
		e.restartTimer()
	}
}

// Disable turns previewing off and clears every artifact block. If a
// scan is active the clear is latched and runs when the scan completes.
func (e *Engine) Disable() {
	e.enabled = false

	if e.scanning {
		e.pendingClear = true
		return
	}

	e.clearAll()
}

// Refresh drops the cache and every artifact block, then schedules a
// rebuild from scratch. Deferred like Disable when a scan is active.
func (e *Engine) Refresh() {
	if e.scanning {
		e.pendingRefresh = true
		return
	}

	e.stopTimer()
	e.cache.Clear()
	e.clearAll()
	e.restartTimer()
}

// IsEnabled reports whether previewing is enabled.
func (e *Engine) IsEnabled() bool {
	return e.enabled
}

// ScanNow runs a full preview pass synchronously, bypassing the
// debounce timer. Like every engine method it must run on the engine's
// logical thread; it exists for hosts and tests that drive the engine
// directly.
func (e *Engine) ScanNow() {
	e.stopTimer()
	e.scanRequested()
}

// CachedImage returns the decoded image rendered by the artifact block
// with the given ID.
func (e *Engine) CachedImage(blockID uuid.UUID) (image.Image, bool) {
	payload, ok := e.doc.Artifact(blockID)
	if !ok {
		return nil, false
	}

	return e.cache.Image(payload.SourceKey)
}

// Cache exposes the engine's image cache.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Close stops the debounce timer. The event queue is owned by the host
// and is not touched.
func (e *Engine) Close() {
	e.stopTimer()
}

// restartTimer (re)arms the debounce timer. Expiry publishes a scan
// request to the queue; the timer goroutine never touches engine state.
func (e *Engine) restartTimer() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if e.timer == nil {
		e.timer = time.AfterFunc(e.debounce, func() {
			_ = e.queue.Publish(event.ScanRequested{})
		})
		return
	}

	e.timer.Stop()
	e.timer.Reset(e.debounce)
}

// stopTimer cancels a pending debounce expiry.
func (e *Engine) stopTimer() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
	}
}

// notifyStatus fires the host's status-changed callback.
func (e *Engine) notifyStatus() {
	if e.statusFn != nil {
		e.statusFn()
	}
}
