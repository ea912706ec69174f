package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/mdpreview/internal/document"
	"github.com/dshills/mdpreview/internal/event"
	"github.com/dshills/mdpreview/internal/preview"
	"github.com/dshills/mdpreview/internal/preview/extract"
)

// Open loads a markdown file and attaches a preview engine to it. Local
// image references in the document resolve relative to the file's
// directory.
func (app *Application) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return NewOperationError("open", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return NewOperationError("open", path, err)
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.doc != nil {
		return ErrDocumentAlreadyOpen
	}

	doc := document.NewFromString(string(data))
	doc.SetModified(false)

	resolver := extract.NewResolver(filepath.Dir(abs))

	s := app.config.Settings().Preview
	debounce := s.Debounce()
	if app.opts.Debounce > 0 {
		debounce = app.opts.Debounce
	}

	engine := preview.NewEngine(doc, resolver, app.queue,
		preview.WithFetcher(app.fetcher),
		preview.WithSettings(preview.SettingsFunc(app.config.PreviewEnabled)),
		preview.WithDebounce(debounce),
		preview.WithFitBounds(s.MaxWidth, s.MaxHeight),
		preview.WithStatusFunc(app.onScanStatus),
		preview.WithLogf(app.logger.WithComponent("preview").Debug),
	)
	app.queue.Subscribe(app.afterMessage)

	// Host edits flow into the queue; the engine never sees them
	// directly.
	doc.OnChange(func(pos, removed, added int) {
		app.metrics.RecordChange()
		_ = app.queue.Publish(event.ContentChanged{
			Position:     pos,
			CharsRemoved: removed,
			CharsAdded:   added,
		})
	})

	app.doc = doc
	app.engine = engine
	app.path = abs

	app.logger.WithComponent("document").Info("opened %s (%d blocks)", abs, doc.Len())
	return nil
}

// Save writes the document text back to its file. Artifact blocks hold
// placeholder runes only, so the on-disk form keeps them out by
// filtering before write.
func (app *Application) Save() error {
	app.mu.RLock()
	doc := app.doc
	path := app.path
	app.mu.RUnlock()

	if doc == nil {
		return ErrNoDocument
	}

	var parts []string
	for _, b := range doc.Blocks() {
		if isPlaceholderLine(b.Text) {
			continue
		}
		parts = append(parts, b.Text)
	}

	if err := os.WriteFile(path, []byte(strings.Join(parts, "\n")), 0o644); err != nil {
		return NewOperationError("save", path, err)
	}

	doc.SetModified(false)
	return nil
}

// isPlaceholderLine reports whether a line consists of a single object
// replacement character.
func isPlaceholderLine(text string) bool {
	return len([]rune(text)) == 1 && []rune(text)[0] == preview.Placeholder
}
