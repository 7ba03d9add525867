package corpus

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Library serves the current corpus snapshot and swaps in a new one on
// reload. Readers never observe a partially loaded tree.
type Library struct {
	dir    string
	logger *slog.Logger

	current atomic.Pointer[Snapshot]

	reloadMu  sync.Mutex
	subsMu    sync.RWMutex
	listeners []func(*Snapshot)
}

// NewLibrary loads dir and returns a library serving it.
func NewLibrary(dir string, logger *slog.Logger) (*Library, error) {
	snap, err := Load(dir)
	if err != nil {
		return nil, err
	}

	l := &Library{dir: dir, logger: logger}
	l.current.Store(snap)

	st := snap.Stats()
	logger.Info("corpus loaded", "dir", dir, "poets", st.Poets, "books", st.Books, "couplets", st.Couplets)
	return l, nil
}

// Dir returns the corpus directory.
func (l *Library) Dir() string {
	return l.dir
}

// Snapshot returns the current snapshot.
func (l *Library) Snapshot() *Snapshot {
	return l.current.Load()
}

// OnReload registers fn to run with every newly installed snapshot.
func (l *Library) OnReload(fn func(*Snapshot)) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Reload loads the directory again. On failure the previous snapshot stays
// in place and the error is returned.
func (l *Library) Reload() error {
	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	start := time.Now()
	snap, err := Load(l.dir)
	if err != nil {
		l.logger.Error("corpus reload failed, keeping previous snapshot", "dir", l.dir, "error", err)
		return err
	}
	l.current.Store(snap)

	l.subsMu.RLock()
	listeners := append([]func(*Snapshot){}, l.listeners...)
	l.subsMu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}

	st := snap.Stats()
	l.logger.Info("corpus reloaded", "poets", st.Poets, "couplets", st.Couplets, "duration", time.Since(start))
	return nil
}
