package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

// DefaultDebounce batches the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// watchTarget is a directory (every file in it) or a single file.
type watchTarget struct {
	dir      string
	file     string // base name; empty matches any file in dir
	onChange func()
}

// Watcher reloads prompts and data files when they change on disk.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	targets  []watchTarget
	pending  map[int]time.Time
	debounce time.Duration
	log      driven.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates an idle watcher. A nil log discards watcher logs.
func NewWatcher(log driven.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Watcher{
		watcher:  w,
		pending:  make(map[int]time.Time),
		debounce: DefaultDebounce,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before a callback fires.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

// WatchPrompts reloads store whenever a file in its directory changes.
func (w *Watcher) WatchPrompts(store *PromptStore) error {
	return w.WatchDir(store.Dir(), func() {
		store.Reload()
		w.log.Info("prompts reloaded", "dir", store.Dir())
	})
}

// WatchDir calls onChange after any file in dir changes.
func (w *Watcher) WatchDir(dir string, onChange func()) error {
	return w.add(watchTarget{dir: filepath.Clean(dir), onChange: onChange})
}

// WatchFile calls onChange after path changes. The parent directory is
// watched so editors that replace the file by rename are handled.
func (w *Watcher) WatchFile(path string, onChange func()) error {
	path = filepath.Clean(path)
	return w.add(watchTarget{dir: filepath.Dir(path), file: filepath.Base(path), onChange: onChange})
}

func (w *Watcher) add(t watchTarget) error {
	if err := w.watcher.Add(t.dir); err != nil {
		return fmt.Errorf("watch %s: %w", t.dir, err)
	}
	w.mu.Lock()
	w.targets = append(w.targets, t)
	w.mu.Unlock()
	return nil
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop ends the event loop and releases the OS watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(w.tickInterval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)
		case <-tick.C:
			w.flush()
		}
	}
}

func (w *Watcher) tickInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d := w.debounce / 4; d > time.Millisecond {
		return d
	}
	return time.Millisecond
}

// handle marks every target the event concerns as pending.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	dir, base := filepath.Dir(event.Name), filepath.Base(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	for i, t := range w.targets {
		if t.dir != dir || (t.file != "" && t.file != base) {
			continue
		}
		w.pending[i] = time.Now()
	}
}

// flush fires callbacks whose targets have been quiet for the debounce period.
func (w *Watcher) flush() {
	var due []func()

	w.mu.Lock()
	for i, last := range w.pending {
		if time.Since(last) < w.debounce {
			continue
		}
		delete(w.pending, i)
		due = append(due, w.targets[i].onChange)
	}
	w.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}
