// Package watch notifies callers when a file is replaced on disk.
// The index store writes through rename, so the watcher observes the
// directory and filters for the target name.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultDebounce coalesces bursts of events into one callback.
const DefaultDebounce = 250 * time.Millisecond

// Callback runs after the watched file changed.
type Callback func(ctx context.Context)

// FileWatcher calls a Callback when its file is created, renamed into
// place or written.
type FileWatcher struct {
	path     string
	name     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange Callback

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewFileWatcher watches path. Its directory must exist.
func NewFileWatcher(path string, onChange Callback, opts ...Option) (*FileWatcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watch: callback is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &FileWatcher{
		path:     path,
		name:     filepath.Base(path),
		watcher:  fsw,
		debounce: DefaultDebounce,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}

// Run processes events until ctx is cancelled, then closes the watcher and
// waits for any callback in flight.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil && w.timer.Stop() {
			w.wg.Done()
		}
		w.mu.Unlock()
		w.wg.Wait()
	}()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				logger.Debug("watch: %s %s", event.Op, event.Name)
				w.schedule(ctx)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// schedule (re)starts the debounce timer.
func (w *FileWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		if ctx.Err() == nil {
			w.onChange(ctx)
		}
	})
}
