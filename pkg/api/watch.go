package api

import (
	"github.com/fsnotify/fsnotify"

	"github.com/tiobe/closure-compiler/internal/scope"
)

// RescanFunc re-parses and re-analyzes one changed source, external to
// pkg/api since re-parsing is a Non-goal (§7); the caller supplies it.
type RescanFunc func(sourcePath string) Result

// Watcher drives in-process incremental rescans off real filesystem
// change notifications (§4.7, §9 "must support in-process incremental
// rescans"), grounded on the same fsnotify event loop shape as
// SeleniaProject-Orizon's vfs.FSNotifyWatcher: one goroutine draining
// fsnotify's Events/Errors channels into the scope creator's
// invalidate-then-refresh cycle. fsnotify never becomes a dependency of
// internal/*; it only ever calls back into ScopeCreator.Invalidate and a
// caller-supplied RescanFunc.
type Watcher struct {
	w       *fsnotify.Watcher
	creator *scope.ScopeCreator
	rescan  RescanFunc
	results chan Result
	done    chan struct{}
}

// Watch starts watching every path in paths. Each fsnotify write/create
// event invalidates that source in creator (§4.7's "Invalidate...
// forgets every binding previously attributed to that script") and
// re-runs rescan, publishing the resulting Result on the returned
// channel. Callers should read that channel until Close is called.
func Watch(creator *scope.ScopeCreator, paths []string, sourceIndexOf func(path string) uint32, rescan RescanFunc) (*Watcher, <-chan Result, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	watcher := &Watcher{
		w:       w,
		creator: creator,
		rescan:  rescan,
		results: make(chan Result, 16),
		done:    make(chan struct{}),
	}
	go watcher.loop(sourceIndexOf)
	return watcher, watcher.results, nil
}

func (w *Watcher) loop(sourceIndexOf func(path string) uint32) {
	defer close(w.results)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.creator.Invalidate(sourceIndexOf(ev.Name))
			w.creator.Thaw()
			w.creator.RefreshDirty()
			w.creator.Freeze()
			w.results <- w.rescan(ev.Name)
		case _, ok := <-w.w.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.w.Close()
}
