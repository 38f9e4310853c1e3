// Package watcher reports file additions, changes and removals under a set
// of watched paths, following new subdirectories as they appear.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taigrr/sitefs/internal/pathfilter"
)

// Op is the kind of change an Event reports.
type Op int

const (
	// Add reports a file that appeared (or existed, for the initial scan).
	Add Op = iota
	// Change reports a file whose contents were written.
	Change
	// Unlink reports a file that was removed or renamed away.
	Unlink
)

// String returns the event name used in logs and CLI output.
func (op Op) String() string {
	switch op {
	case Add:
		return "add"
	case Change:
		return "change"
	case Unlink:
		return "unlink"
	default:
		return "unknown"
	}
}

// Event is a single file change.
type Event struct {
	Path string // watched root joined with the path below it
	Op   Op
	Time time.Time
}

// DefaultDebounceDelay is the default window for coalescing rapid writes.
const DefaultDebounceDelay = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Filter        *pathfilter.PathFilter // nil watches everything
	DebounceDelay time.Duration          // zero means DefaultDebounceDelay
	EmitInitial   bool                   // report existing files as Add first
}

// Watcher delivers file events for a set of paths. Directories are watched
// recursively; entries rejected by the filter are neither watched nor
// reported. The watched roots themselves are never filtered.
type Watcher struct {
	fsw    *fsnotify.Watcher
	filter *pathfilter.PathFilter
	roots  []string
	events chan Event
	errors chan error
	done   chan struct{}

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	dirs          map[string]struct{}
	closed        bool
}

// New starts watching paths. Every path must exist. The initial scan is
// complete when New returns; with EmitInitial its Add events are delivered
// ahead of any live event. The watcher closes itself when ctx is done.
func New(ctx context.Context, opts Options, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	delay := opts.DebounceDelay
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}

	w := &Watcher{
		fsw:           fsw,
		filter:        opts.Filter,
		events:        make(chan Event, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		debounceDelay: delay,
		debounceMap:   make(map[string]*time.Timer),
		dirs:          make(map[string]struct{}),
	}
	for _, p := range paths {
		w.roots = append(w.roots, filepath.Clean(p))
	}

	var initial []string
	for _, root := range w.roots {
		files, err := w.addRoot(root)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		initial = append(initial, files...)
	}
	if !opts.EmitInitial {
		initial = nil
	}

	go w.processEvents(initial)
	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-w.done:
		}
	}()

	return w, nil
}

// addRoot watches a root, which may be a single file.
func (w *Watcher) addRoot(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return w.addTree(root)
	}
	if err := w.fsw.Add(root); err != nil {
		return nil, err
	}
	return []string{root}, nil
}

// addTree watches dir and every allowed directory below it, returning the
// allowed files found on the way.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can vanish between listing and visiting.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if path != dir && !w.allowed(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
			return nil
		}

		if err := w.fsw.Add(path); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}
		w.mu.Lock()
		w.dirs[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
	return files, err
}

// relative returns path relative to the watched root that contains it.
func (w *Watcher) relative(path string) (string, bool) {
	for _, root := range w.roots {
		if path == root {
			return "", true
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return rel, true
	}
	return "", false
}

func (w *Watcher) allowed(path string) bool {
	rel, ok := w.relative(path)
	if !ok {
		return false
	}
	if rel == "" {
		return true
	}
	return w.filter.IsAllowed(filepath.Base(path), rel)
}

// processEvents delivers the initial scan and then converts fsnotify events.
func (w *Watcher) processEvents(initial []string) {
	for _, path := range initial {
		w.sendEvent(path, Add)
	}

	for {
		select {
		case <-w.done:
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
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.allowed(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		if err != nil {
			return
		}
		if !info.IsDir() {
			w.sendEvent(path, Add)
			return
		}
		// Files written before the new directory was watched are reported here.
		files, err := w.addTree(path)
		if err != nil {
			w.sendError(err)
		}
		for _, f := range files {
			w.sendEvent(f, Add)
		}
	case event.Has(fsnotify.Write):
		w.debounce(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if w.forget(path) {
			return
		}
		w.sendEvent(path, Unlink)
	}
	// chmod is ignored
}

// forget drops any pending change for path and reports whether path was a
// watched directory.
func (w *Watcher) forget(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
		delete(w.debounceMap, path)
	}
	if _, ok := w.dirs[path]; ok {
		delete(w.dirs, path)
		return true
	}
	return false
}

// debounce coalesces rapid writes to the same file into one Change.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}

	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		w.sendEvent(path, Change)
	})
}

func (w *Watcher) sendEvent(path string, op Op) {
	select {
	case w.events <- Event{Path: path, Op: op, Time: time.Now()}:
	case <-w.done:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// error channel full, drop
	}
}

// Events returns the channel of file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops the watcher and releases its resources. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}
