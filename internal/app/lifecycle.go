package app

import (
	"context"
	"time"

	"github.com/dshills/mdpreview/internal/event"
)

// shutdownTimeout bounds how long Shutdown waits for the queue to drain.
const shutdownTimeout = 5 * time.Second

// Start begins message delivery and, when configured, config live
// reload. An opened document gets an initial preview pass scheduled.
func (app *Application) Start() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := app.queue.Start(); err != nil {
		app.running.Store(false)
		return &InitError{Component: "event queue", Err: err}
	}

	if app.opts.WatchConfig {
		if err := app.config.Watch(); err != nil {
			app.logger.WithComponent("config").Warn("live reload unavailable: %v", err)
		}
	}

	if app.Engine() != nil {
		_ = app.queue.Publish(event.ScanRequested{})
	}

	app.logger.Info("started")
	return nil
}

// Run starts the application and blocks until ctx is canceled, then
// shuts down.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	return app.Shutdown()
}

// Shutdown stops all components. In-flight downloads are awaited and
// queued messages are drained before the queue stops.
func (app *Application) Shutdown() error {
	if !app.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}

	if eng := app.Engine(); eng != nil {
		eng.Close()
	}

	app.fetcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.queue.Stop(ctx); err != nil {
		app.logger.WithComponent("queue").Warn("stop: %v", err)
	}

	if err := app.config.Close(); err != nil {
		app.logger.WithComponent("config").Warn("close: %v", err)
	}

	app.logger.Info("stopped")
	return nil
}

// IsRunning reports whether the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}
