package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event bursts editors produce when
// saving a file (truncate + write, or write-temp + rename).
const reloadDebounce = 100 * time.Millisecond

// watcher watches one configuration file and invokes a callback after
// changes settle.
type watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	onChange func()

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// newWatcher starts watching path. The containing directory is watched
// rather than the file itself so atomic-rename saves are not lost.
func newWatcher(path string, onChange func()) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &watcher{
		fsw:      fsw,
		path:     abs,
		onChange: onChange,
		done:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// loop forwards relevant file events into the debounce timer.
func (w *watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are not actionable here; the stale config
			// simply stays in effect.
		}
	}
}

// schedule (re)arms the reload debounce timer.
func (w *watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer == nil {
		w.timer = time.AfterFunc(reloadDebounce, w.fire)
		return
	}
	w.timer.Stop()
	w.timer.Reset(reloadDebounce)
}

// fire runs the change callback unless the watcher is closed.
func (w *watcher) fire() {
	select {
	case <-w.done:
		return
	default:
	}
	w.onChange()
}

// close stops the watcher and waits for its loop.
func (w *watcher) close() error {
	close(w.done)

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
