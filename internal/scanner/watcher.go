package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher supplements the scan-on-demand model with live rescans of
// external file changes (edits made outside the editor, e.g. by a
// formatter or version control checkout). It is flat — every watched
// directory simply re-triggers a scan of whichever file changed, since
// pytest fixture files have no dependency graph to track beyond the
// conftest.py priority chain the resolver already walks per-query.
type Watcher struct {
	mu      sync.RWMutex
	fs      *fsnotify.Watcher
	scanner *Scanner
	watched map[string]bool
	done    chan struct{}
}

// NewWatcher constructs a Watcher that feeds changed files back through
// scanner.
func NewWatcher(scanner *Scanner) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fs,
		scanner: scanner,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// WatchTree adds root and every non-skipped subdirectory to the watch
// set, so that new conftest.py/test files created after startup are also
// noticed (fsnotify watches directories, not trees, so each directory
// needs its own Add call).
func (w *Watcher) WatchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		w.mu.Lock()
		already := w.watched[path]
		w.mu.Unlock()
		if already {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return nil //nolint:nilerr
		}
		w.mu.Lock()
		w.watched[path] = true
		w.mu.Unlock()
		return nil
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) run() {
	ctx := context.Background()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if name == "conftest.py" || isTestFileName(name) {
				w.scanner.analyzeFile(ctx, event.Name, false)
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}
