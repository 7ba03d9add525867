package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Library when files under its directory change.
type Watcher struct {
	library  *Library
	logger   *slog.Logger
	debounce time.Duration
	fsw      *fsnotify.Watcher

	// mu guards timer and closed, and is held for the length of a reload so
	// Close cannot return while one is running.
	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches the library directory and each poet directory in it.
func NewWatcher(library *Library, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		library:  library,
		logger:   logger,
		debounce: debounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}

	if err := w.addTree(library.Dir()); err != nil {
		fsw.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access corpus path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Start processes events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("corpus watcher error", "error", err)
			}
		}
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	// New poet directories need their own watch.
	if event.Has(fsnotify.Create) {
		if err := w.fsw.Add(event.Name); err == nil {
			w.logger.Debug("watching new corpus directory", "path", event.Name)
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.schedule()
}

// schedule restarts the debounce timer so a burst of writes reloads once.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	_ = w.library.Reload() //nolint:errcheck // Reload logs failures
}

// Close stops the watcher, waits for any running reload to finish and for
// the event loop to exit. No reload starts after Close returns.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
