// Package watch provides file system watching for the halcom database.
//
// SQLite in WAL mode spreads writes across the main database file and
// its -wal sidecar, so the watcher monitors the containing directory and
// filters events down to the database file family. Bursts of writes are
// coalesced into a single change notification.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last write
// before emitting a change notification.
const DefaultDebounce = 250 * time.Millisecond

// Change is a coalesced database change notification.
type Change struct {
	// Path is the absolute path of the database file that changed.
	Path string
	// At is when the last underlying file event arrived.
	At time.Time
}

// Watcher watches a SQLite database file for external writes.
// It uses fsnotify for cross-platform file system event monitoring.
type Watcher struct {
	watcher  *fsnotify.Watcher
	changes  chan Change
	errors   chan error
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	dbPath   string
	debounce time.Duration
}

// New creates a new Watcher instance. The watcher must be started with
// Start() before it will emit change notifications.
func New() (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  watcher,
		changes:  make(chan Change, 16),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce overrides the coalescing window. It must be called before
// Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.debounce = d
	}
}

// Start begins watching the database file for changes. It watches the
// containing directory because the file itself may be replaced, and
// WAL checkpoints touch the sidecar files rather than the database.
func (w *Watcher) Start(dbPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("failed to resolve database path %s: %w", dbPath, err)
	}
	w.dbPath = abs

	dir := filepath.Dir(abs)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch database directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	// Closing the underlying watcher unblocks the event loop
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.changes)
	close(w.errors)

	return nil
}

// Changes returns the channel that emits coalesced change
// notifications. It is closed when the watcher is stopped.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel that emits error notifications.
// It is closed when the watcher is stopped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// processEvents is the main event loop. It filters fsnotify events down
// to the database file family and debounces them into Change
// notifications.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	var last time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matchesDatabase(event) {
				continue
			}
			last = time.Now()
			stopTimer()
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			stopTimer()
			select {
			case w.changes <- Change{Path: w.dbPath, At: last}:
			case <-w.done:
				return
			default:
				// A pending notification already covers this change
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// matchesDatabase reports whether the event is for the database file or
// one of its WAL sidecars, and is a write-like operation.
func (w *Watcher) matchesDatabase(event fsnotify.Event) bool {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	switch abs {
	case w.dbPath, w.dbPath + "-wal", w.dbPath + "-shm":
	default:
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
	case event.Has(fsnotify.Write):
	case event.Has(fsnotify.Remove):
	case event.Has(fsnotify.Rename):
	default:
		// Ignore chmod and other events
		return false
	}
	return true
}
