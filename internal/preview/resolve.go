package preview

import (
	"os"

	"github.com/dshills/mdpreview/internal/imgutil"
	"github.com/dshills/mdpreview/internal/preview/extract"
)

// resolveCacheResource maps a source key to a cache resource name.
// Local files decode synchronously; remote keys kick off an async
// download and resolve on a later scan. A key that failed to decode
// once stays failed until the cache is cleared.
func (e *Engine) resolveCacheResource(key string) (string, bool) {
	if name, ok := e.cache.Resolve(key); ok {
		return name, true
	}

	if e.cache.Failed(key) {
		return "", false
	}

	if extract.LocalFile(key) {
		data, err := os.ReadFile(key)
		if err != nil {
			e.logf("preview: read %q: %v", key, err)
			e.cache.MarkFailed(key)
			return "", false
		}

		img, err := e.decode(data)
		if err != nil {
			e.logf("preview: decode %q: %v", key, err)
			e.cache.MarkFailed(key)
			return "", false
		}

		img = imgutil.FitTo(img, e.maxWidth, e.maxHeight)
		name, _ := e.cache.Register(key, img)
		return name, true
	}

	if e.fetcher != nil {
		e.fetcher.Fetch(key)
	}
	return "", false
}

// onDownloaded handles a completed remote fetch. Decode failures are
// dropped; a key another path already satisfied is dropped too (first
// writer wins). A successful registration schedules a fresh scan so the
// next pass materializes the artifact.
func (e *Engine) onDownloaded(key string, data []byte) {
	img, err := e.decode(data)
	if err != nil {
		e.logf("preview: decode download %q: %v", key, err)
		e.cache.MarkFailed(key)
		e.stats.downloadsDropped.Add(1)
		return
	}

	if _, ok := e.cache.Resolve(key); ok {
		return
	}

	img = imgutil.FitTo(img, e.maxWidth, e.maxHeight)
	e.cache.Register(key, img)
	e.stats.downloadsCompleted.Add(1)

	e.restartTimer()
}
