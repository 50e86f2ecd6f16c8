package datasource

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits to the config file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange chan struct{}
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex // guards sends on onChange against its close
	closed bool
}

// NewWatcher creates a watcher for the config file at path. It watches the
// parent directory because editors often replace the file by rename.
func NewWatcher(path string) (*Watcher, error) {
	return newWatcher(path, 100*time.Millisecond)
}

func newWatcher(path string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		path:     path,
		debounce: debounce,
		onChange: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go watcher.loop()
	return watcher, nil
}

// Changes returns a channel that receives a signal after the file changes.
// It is closed once the watcher stops.
func (w *Watcher) Changes() <-chan struct{} {
	return w.onChange
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher. Calling it again is a no-op.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.watcher.Close()
	})
	return w.closeErr
}

func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.onChange <- struct{}{}:
	default:
	}
}

func (w *Watcher) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	close(w.onChange)
}

func (w *Watcher) loop() {
	defer w.finish()
	var timer *time.Timer
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors write in bursts; signal once they settle.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.notify)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
