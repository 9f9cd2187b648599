package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sage-labs/sage-cli/internal/logger"
)

// debounceDelay batches rapid write events for the same file. Editors
// often fire several writes per save.
const debounceDelay = 500 * time.Millisecond

// Watcher observes a directory tree and reports changed documents.
// Used by 'sage ingest --watch' to keep the index current.
type Watcher struct {
	fsw  *fsnotify.Watcher
	root string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over root and all its subdirectories.
func NewWatcher(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		root:   root,
		timers: make(map[string]*time.Timer),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// addRecursive registers root and every non-hidden subdirectory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && p != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// Run blocks, invoking onChange with the path of each changed supported
// file, until the context is cancelled. New subdirectories are picked
// up as they appear.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, onChange)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent reacts to a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event, onChange func(path string)) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// Watch directories created after startup.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				logger.Warn("Watching new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !supportedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	w.debounce(event.Name, onChange)
}

// debounce schedules onChange after a quiet period, resetting the timer
// on every new event for the same path.
func (w *Watcher) debounce(path string, onChange func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Reset(debounceDelay)
		return
	}
	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		onChange(path)
	})
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
