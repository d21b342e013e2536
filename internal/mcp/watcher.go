package mcp

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// debounceDelay coalesces the write bursts agents produce while
// appending to a live session file.
const debounceDelay = 500 * time.Millisecond

// Watcher invalidates cache entries for a data root when any file
// under it changes. Events are debounced per path.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *cache.Store
	roots   []string

	mu     sync.Mutex
	timers map[string]*time.Timer

	stop chan struct{}
	done chan struct{}
}

// NewWatcher watches the given roots recursively. Roots that do not
// exist are skipped; at least one must be watchable.
func NewWatcher(store *cache.Store, roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher: fsw,
		store:   store,
		timers:  make(map[string]*time.Timer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	watched := 0
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := w.addTree(root); err != nil {
			util.LogWarn(fmt.Sprintf("Failed to watch %s: %v", root, err))
			continue
		}
		w.roots = append(w.roots, root)
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return nil, fmt.Errorf("no watchable roots among %v", roots)
	}
	return w, nil
}

func (w *Watcher) Start() {
	util.LogInfo(fmt.Sprintf("Watching %d data roots for changes", len(w.roots)))
	go w.loop()
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	<-w.done
}

// addTree registers root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				util.LogDebug(fmt.Sprintf("Cannot watch %s: %v", path, err))
			}
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			util.LogWarn(fmt.Sprintf("File watcher error: %v", err))
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New session directories appear mid-run; watch them too.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				util.LogDebug(fmt.Sprintf("Cannot watch new directory %s: %v", event.Name, err))
			}
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.debounce(event.Name)
}

// debounce schedules an invalidation for the path, resetting the
// timer on every further event for the same path.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.invalidateFor(path)
	})
}

// invalidateFor drops the cache entries scoped to the root containing
// the changed path: the root's session index and its event sets.
func (w *Watcher) invalidateFor(path string) {
	for _, root := range w.roots {
		if !strings.HasPrefix(path, root) {
			continue
		}
		dropped := w.store.Invalidate(cache.SummariesKey(root))
		dropped += w.store.Invalidate(fmt.Sprintf("events:%s:", root))
		util.LogDebug(fmt.Sprintf("Change in %s invalidated %d cache entries", path, dropped))
		return
	}
}
