// Package watcher monitors inbox directories and hands newly arrived media
// files to a handler once they have settled. Files still being copied fire
// a stream of write events; each event resets a per-file settle timer so
// the handler only ever sees completed files.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Nomadcxx/jellyrename/internal/logging"
)

// Handler receives a file after its settle window elapses without new
// writes. Errors are logged, not fatal; the watcher keeps running.
type Handler interface {
	HandleFile(path string) error
	IsMediaFile(path string) bool
}

// Watcher tails inbox directories through fsnotify. Settled files are
// delivered to the handler one at a time from the Start loop, so handlers
// never run concurrently even when several files settle together.
type Watcher struct {
	fs        *fsnotify.Watcher
	handler   Handler
	settle    time.Duration
	recursive bool
	log       *logging.ComponentLogger

	settled chan string
	done    chan struct{}
	closed  sync.Once

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option adjusts a Watcher at construction.
type Option func(*Watcher)

// WithRecursive controls whether subdirectories are watched too.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithSettle overrides the default 5s settle window.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New builds a Watcher delivering settled files to handler.
func New(handler Handler, logger *logging.Logger, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fs:        fs,
		handler:   handler,
		settle:    5 * time.Second,
		recursive: true,
		log:       logger.Component("watcher"),
		settled:   make(chan string, 64),
		done:      make(chan struct{}),
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch registers the given paths. Hidden directories are skipped.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if !w.recursive {
			if err := w.fs.Add(path); err != nil {
				return fmt.Errorf("unable to watch %s: %w", path, err)
			}
			w.log.Info("watching", logging.F("path", path))
			continue
		}
		if err := w.addRecursive(path); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.log.Info("watching", logging.F("path", path))
		return nil
	})
}

// Start processes events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(event)

		case path := <-w.settled:
			w.deliver(path)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Warn("watcher error", logging.F("error", err.Error()))
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.closed.Do(func() { close(w.done) })
	w.cancelPending()
	return w.fs.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.recursive && !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.fs.Add(event.Name); err != nil {
					w.log.Warn("unable to watch new directory",
						logging.F("path", event.Name), logging.F("error", err.Error()))
				}
			}
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.cancel(event.Name)
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.handler.IsMediaFile(event.Name) {
		return
	}

	w.reset(event.Name)
}

// reset arms (or re-arms) the settle timer for path.
func (w *Watcher) reset(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.fire(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// fire hands a settled path to the Start loop. Delivery happens there, not
// on the timer goroutine, so handler invocations are serialized.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case w.settled <- path:
	case <-w.done:
	}
}

func (w *Watcher) deliver(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	w.log.Info("file settled", logging.F("path", path))
	if err := w.handler.HandleFile(path); err != nil {
		w.log.Error("handler failed", err, logging.F("path", path))
	}
}
