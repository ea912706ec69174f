package app

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/mdpreview/internal/config"
	"github.com/dshills/mdpreview/internal/document"
	"github.com/dshills/mdpreview/internal/event"
	"github.com/dshills/mdpreview/internal/preview"
	"github.com/dshills/mdpreview/internal/preview/download"
)

// Application is the central coordinator. It owns the event queue that
// serves as the preview engine's logical thread, the configuration, and
// the currently open document.
type Application struct {
	mu sync.RWMutex

	// Core infrastructure
	logger  *Logger
	metrics *Metrics
	config  *config.Config
	queue   *event.Queue
	fetcher *download.HTTPFetcher

	// Open document
	doc    *document.Document
	engine *preview.Engine
	path   string

	// Scan timing, written and read on the queue goroutine only.
	scanStart time.Time

	// State
	running atomic.Bool

	// Options
	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogOutput is where logs are written. Defaults to os.Stderr.
	LogOutput io.Writer

	// Debounce overrides the configured edit-quiet interval when
	// positive.
	Debounce time.Duration

	// WatchConfig enables live reload of the configuration file.
	WatchConfig bool
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}

	if err := app.bootstrap(); err != nil {
		return nil, err
	}

	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Logger
	logCfg := DefaultLoggerConfig()
	logCfg.Level = ParseLogLevel(app.opts.LogLevel)
	if app.opts.LogOutput != nil {
		logCfg.Output = app.opts.LogOutput
	}
	app.logger = NewLogger(logCfg)

	// 2. Configuration
	var configOpts []config.Option
	if app.opts.ConfigPath != "" {
		configOpts = append(configOpts, config.WithPath(app.opts.ConfigPath))
	}
	app.config = config.New(configOpts...)
	if err := app.config.Load(); err != nil {
		// Config errors are non-fatal; defaults stand.
		app.logger.WithComponent("config").Warn("load failed: %v", err)
	}
	if app.opts.LogLevel == "" {
		app.logger.SetLevel(ParseLogLevel(app.config.Settings().Log.Level))
	}

	// 3. Event queue, the engine's logical thread
	app.queue = event.New(event.WithPanicHandler(func(msg event.Message, recovered any) {
		app.logger.WithComponent("queue").Error("handler panic on %T: %v", msg, recovered)
	}))
	app.queue.Subscribe(app.beforeMessage)

	// 4. Remote downloader
	dl := app.config.Settings().Download
	app.fetcher = download.NewHTTPFetcher(app.queue,
		download.WithTimeout(dl.Timeout()),
		download.WithMaxBodySize(dl.MaxBodyBytes()),
		download.WithLogf(app.logger.WithComponent("download").Debug),
	)

	app.subscribeConfig()
	return nil
}

// Config returns the application configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Queue returns the application event queue.
func (app *Application) Queue() *event.Queue {
	return app.queue
}

// Document returns the open document, or nil.
func (app *Application) Document() *document.Document {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.doc
}

// Engine returns the preview engine for the open document, or nil.
func (app *Application) Engine() *preview.Engine {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.engine
}

// Path returns the open document's file path.
func (app *Application) Path() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.path
}
