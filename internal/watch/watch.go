// Package watch watches the catalog's schema source file so the CLI's
// watch command can recompile on every save.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a single file for write events, debouncing bursts of
// writes (editors often emit several in quick succession for one save)
// into a single callback invocation.
type Watcher struct {
	file     string
	callback func() error
	watcher  *fsnotify.Watcher
	done     chan bool
}

// New creates a watcher over file that invokes callback on each
// debounced write.
func New(file string, callback func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(absPath)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	return &Watcher{file: absPath, callback: callback, watcher: fsw, done: make(chan bool)}, nil
}

// Start runs callback once immediately, then again on every debounced
// write to the watched file, until Stop is called.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial compile failed: %w", err)
	}

	go func() {
		debounce := time.NewTimer(500 * time.Millisecond)
		debounce.Stop()
		var debounceCh <-chan time.Time

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					if eventPath, err := filepath.Abs(event.Name); err == nil && eventPath == w.file {
						debounce.Reset(500 * time.Millisecond)
						debounceCh = debounce.C
					}
				}

			case <-debounceCh:
				if err := w.callback(); err != nil {
					fmt.Fprintf(os.Stderr, "recompile failed: %v\n", err)
				}
				debounceCh = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
