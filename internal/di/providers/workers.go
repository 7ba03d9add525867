package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/config"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/logger"
)

// CorpusWatcherHandle wraps the corpus watcher with shutdown capability.
// Watcher is nil when watching is disabled.
type CorpusWatcherHandle struct {
	*corpus.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CorpusWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Close()
}

// ProvideCorpusWatcher starts reloading the corpus on file changes when
// CORPUS_WATCH is enabled.
func ProvideCorpusWatcher(i do.Injector) (*CorpusWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	lib := do.MustInvoke[*corpus.Library](i)

	// The index subscribes to reloads, so it must exist first.
	_ = do.MustInvoke[*SearchIndexHandle](i)

	if !cfg.Corpus.Watch {
		log.Info("Corpus watching disabled; restart to pick up corpus changes")
		return &CorpusWatcherHandle{}, nil
	}

	w, err := corpus.NewWatcher(lib, log.WithComponent("corpus-watcher").Logger, corpus.DefaultDebounce)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	log.Info("Corpus watcher started", "dir", lib.Dir(), "debounce", corpus.DefaultDebounce)

	return &CorpusWatcherHandle{Watcher: w, cancel: cancel}, nil
}
