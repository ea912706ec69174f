package app

import (
	"time"

	"github.com/dshills/mdpreview/internal/config"
	"github.com/dshills/mdpreview/internal/event"
)

// beforeMessage runs ahead of the engine's handler on the queue
// goroutine and stamps scan start times.
func (app *Application) beforeMessage(msg event.Message) {
	if _, ok := msg.(event.ScanRequested); ok {
		app.scanStart = time.Now()
	}
}

// afterMessage runs after the engine's handler and closes out the scan
// timing opened by beforeMessage.
func (app *Application) afterMessage(msg event.Message) {
	if _, ok := msg.(event.ScanRequested); ok && !app.scanStart.IsZero() {
		app.metrics.RecordScan(time.Since(app.scanStart))
		app.scanStart = time.Time{}
	}
}

// onScanStatus is the engine's status callback, fired once per
// completed scan or clear. It republishes the change so any queue
// subscriber (an embedding host's UI, for instance) can react.
func (app *Application) onScanStatus() {
	eng := app.Engine()
	if eng == nil {
		return
	}
	s := eng.Stats()
	app.logger.WithComponent("preview").Debug(
		"scan complete: scans=%d inserted=%d updated=%d removed=%d",
		s.Scans, s.ArtifactsInserted, s.ArtifactsUpdated, s.ArtifactsRemoved)

	_ = app.queue.Publish(event.StatusChanged{})
}

// subscribeConfig forwards configuration changes into the event queue so
// the engine observes them on its own thread.
func (app *Application) subscribeConfig() {
	app.config.OnChange(func(ch config.Change) {
		if ch.Type == config.ChangeReload {
			app.metrics.RecordReload()
			app.logger.WithComponent("config").Info("configuration reloaded")
		}

		if ch.Old.Preview.Enabled == ch.New.Preview.Enabled {
			return
		}

		if ch.New.Preview.Enabled {
			_ = app.queue.Publish(event.EnableRequested{})
		} else {
			_ = app.queue.Publish(event.DisableRequested{})
		}
	})
}
