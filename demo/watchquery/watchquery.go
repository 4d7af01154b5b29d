// Package watchquery wires fsnotify filesystem events into the engine's
// invalidation path: one fsnotify.Watcher per Watcher, one debounce timer
// per path, coalescing rapid writes into a single Contents invalidation.
package watchquery

import (
	"fmt"
	"sync"
	"time"

	"github.com/adalundhe/qgraph/demo/filequery"
	"github.com/adalundhe/qgraph/engine"
	"github.com/adalundhe/qgraph/graph"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces a burst of write or create events on one path
// (such as an editor's save) into a single invalidation. Chmod events are
// not watched.
const DefaultDebounce = 100 * time.Millisecond

// Watcher is an engine.Observable handler over filequery.Contents: it reads
// files as filequery.Handler does, and additionally pushes a change
// notification through its ChangeStream whenever fsnotify reports one of the
// watched files was written.
type Watcher struct {
	filequery.Handler
	fs       *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	subs    map[int]func(graph.Query)
	nextSub int
	pending map[string]*time.Timer
}

// New starts watching paths for writes. The caller must call Close when
// done to release the underlying fsnotify watcher.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watchquery: new watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		subs:     make(map[int]func(graph.Query)),
		pending:  make(map[string]*time.Timer),
	}

	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watchquery: watch %s: %w", p, err)
		}
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.scheduleEmit(ev.Name)
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) scheduleEmit(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() { w.emit(path) })
}

func (w *Watcher) emit(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	subs := make([]func(graph.Query), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	q := filequery.Contents{Path: path}
	for _, fn := range subs {
		fn(q)
	}
}

// Changes implements engine.Observable.
func (w *Watcher) Changes() engine.ChangeStream {
	return w
}

// Subscribe implements engine.ChangeStream.
func (w *Watcher) Subscribe(fn func(graph.Query)) func() {
	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Close stops watching and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = nil
	w.mu.Unlock()
	return w.fs.Close()
}
