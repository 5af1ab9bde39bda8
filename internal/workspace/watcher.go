package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher forwards filesystem changes under a workspace root to a sink.
// Created and modified files that match the scanner's patterns produce
// NotifyChange; removed and renamed files produce NotifyClose. Debouncing
// is left to the consumer.
type Watcher struct {
	fsw     *fsnotify.Watcher
	scanner *Scanner
	root    string
	sink    Sink
	logf    func(format string, args ...any)

	wg     sync.WaitGroup
	closed chan struct{}
}

// NewWatcher creates a Watcher over root using the scanner's
// include/exclude patterns to filter events
func NewWatcher(root string, scanner *Scanner, sink Sink, logf func(format string, args ...any)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Watcher{
		fsw:     fsw,
		scanner: scanner,
		root:    root,
		sink:    sink,
		logf:    logf,
		closed:  make(chan struct{}),
	}, nil
}

// Start registers watches for every directory under the root and begins
// forwarding events
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Close stops event forwarding and releases the filesystem watches
func (w *Watcher) Close() error {
	close(w.closed)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// addWatches walks dir registering a watch on every subdirectory.
// fsnotify watches are not recursive.
func (w *Watcher) addWatches(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closed:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logf("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need their own watch before their files appear
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatches(event.Name); err != nil {
				w.logf("failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || !w.scanner.matches(filepath.ToSlash(rel)) {
		return
	}
	uri := FileURI(event.Name)

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.sink.NotifyClose(uri)
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		data, err := os.ReadFile(event.Name)
		if err != nil {
			w.logf("failed to read changed file %s: %v", event.Name, err)
			return
		}
		w.sink.NotifyChange(uri, string(data))
	}
}
