// Package watch re-runs a search when files under the root change.
// Events are debounced so an editor save burst triggers one re-run, and
// per-file content checksums let callers suppress output for files whose
// bytes did not actually change.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/litgrep/internal/debug"
)

// Watcher monitors a directory tree and invokes a trigger after a quiet
// period following filesystem events.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
}

// New creates a watcher over root. Hidden directories are not watched;
// they are excluded from scans as well.
func New(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w := &Watcher{fsw: fsw, root: root, debounce: debounce}
	if err := w.addWatches(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if werr := w.fsw.Add(path); werr != nil {
			debug.LogWatch("cannot watch %s: %v\n", path, werr)
		}
		return nil
	})
}

// Run blocks, invoking trigger after each debounced burst of events,
// until the context is cancelled. Newly created directories are added to
// the watch set as they appear.
func (w *Watcher) Run(ctx context.Context, trigger func()) error {
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			if !timer.Stop() && pending {
				<-timer.C
			}
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			debug.LogWatch("event %s %s\n", event.Op, event.Name)
			if event.Op.Has(fsnotify.Create) {
				// A new directory must be watched before anything inside
				// it changes.
				_ = w.addWatches(event.Name)
			}
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			debug.LogWatch("watch error: %v\n", err)

		case <-timer.C:
			pending = false
			trigger()
		}
	}
}

// ChangeSet tracks per-file content checksums across search passes so
// unchanged files are not re-reported. Safe for concurrent use.
type ChangeSet struct {
	mu   sync.Mutex
	sums map[string]uint64
}

// NewChangeSet creates an empty change tracker.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{sums: make(map[string]uint64)}
}

// Update records the checksum for path and reports whether the content
// changed since the previous pass. A path seen for the first time counts
// as changed.
func (c *ChangeSet) Update(path string, sum uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.sums[path]
	c.sums[path] = sum
	return !seen || prev != sum
}

// Forget drops a path, so a future reappearance counts as changed.
func (c *ChangeSet) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sums, path)
}
